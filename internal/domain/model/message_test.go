package model

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMessage(t *testing.T) {
	Convey("Given matchcomms messages", t, func() {
		Convey("A ready handshake is recognised", func() {
			m := NewMessage([]byte(`{"readyForTrackAndField": true, "supportedEvents": ["WaypointRace"]}`))
			r, ok := m.Ready()
			So(ok, ShouldBeTrue)
			So(r.SupportedEvents, ShouldResemble, []string{"WaypointRace"})
		})

		Convey("A handshake without readiness is ignored", func() {
			_, ok := NewMessage([]byte(`{"readyForTrackAndField": false}`)).Ready()
			So(ok, ShouldBeFalse)
		})

		Convey("Non-object payloads are not ready messages", func() {
			_, ok := NewMessage([]byte(`"hello"`)).Ready()
			So(ok, ShouldBeFalse)
		})

		Convey("Event specifications expose their type", func() {
			m := NewMessage([]byte(`{"event_type": "DemolitionDerby", "perma_death": true}`))
			So(m.EventType(), ShouldEqual, "DemolitionDerby")
			So(NewMessage([]byte(`[1,2]`)).EventType(), ShouldEqual, "")
		})
	})
}
