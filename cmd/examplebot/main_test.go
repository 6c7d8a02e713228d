package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/trackfield/internal/domain/model"
	"github.com/okian/trackfield/pkg/logger"
)

func TestSplitEvents(t *testing.T) {
	convey.Convey("Event lists are trimmed and empty entries dropped", t, func() {
		convey.So(splitEvents(" WaypointRace, ,DemolitionDerby "), convey.ShouldResemble,
			[]string{"WaypointRace", "DemolitionDerby"})
		convey.So(splitEvents(""), convey.ShouldBeEmpty)
	})
}

func TestHandshake(t *testing.T) {
	convey.Convey("Given a runner that answers the ready message", t, func() {
		got := make(chan model.ReadyMessage, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := websocket.Accept(w, r, nil)
			if err != nil {
				return
			}
			defer func() { _ = conn.CloseNow() }()
			var ready model.ReadyMessage
			if err := wsjson.Read(r.Context(), conn, &ready); err != nil {
				return
			}
			got <- ready
			_ = wsjson.Write(r.Context(), conn, map[string]any{"event_type": "WaypointRace"})
			_, _, _ = conn.Read(r.Context())
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		spec, err := handshake(ctx, srv.URL, []string{"WaypointRace"}, 2*time.Second, logger.Nop())

		convey.Convey("Then the bot announces itself and returns the spec", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(spec.EventType, convey.ShouldEqual, "WaypointRace")
			ready := <-got
			convey.So(ready.ReadyForTrackAndField, convey.ShouldBeTrue)
			convey.So(ready.SupportedEvents, convey.ShouldResemble, []string{"WaypointRace"})
		})
	})
}
