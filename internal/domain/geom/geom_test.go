package geom_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/trackfield/internal/domain/game"
	"github.com/okian/trackfield/internal/domain/geom"
	. "github.com/smartystreets/goconvey/convey"
	"pgregory.net/rapid"
)

func TestVector3(t *testing.T) {
	Convey("Given two vectors", t, func() {
		a := geom.Vec(0, 0, 0)
		b := geom.Vec(3, 4, 12)

		Convey("Then the distance is the euclidean norm of the difference", func() {
			So(a.Dist(b), ShouldEqual, 13)
			So(b.Sub(a), ShouldResemble, b)
		})

		Convey("When converting to desired state", func() {
			s := b.ToState()

			Convey("Then every component is set", func() {
				So(*s.X, ShouldEqual, 3)
				So(*s.Y, ShouldEqual, 4)
				So(*s.Z, ShouldEqual, 12)
			})
		})

		Convey("When converting from a packet vector", func() {
			So(geom.FromGame(game.Vector3{X: 1, Y: 2, Z: 3}), ShouldResemble, geom.Vec(1, 2, 3))
		})
	})
}

func TestPhysicsJSON(t *testing.T) {
	Convey("Given a start pose", t, func() {
		p := geom.Stationary(geom.Vec(0, -8000, 50), geom.Rotator{Yaw: math.Pi / 2})

		Convey("When marshalled", func() {
			data, err := json.Marshal(p)
			So(err, ShouldBeNil)

			Convey("Then it uses the shape competitors read", func() {
				var raw map[string]map[string]float64
				So(json.Unmarshal(data, &raw), ShouldBeNil)
				So(raw["location"]["y"], ShouldEqual, -8000)
				So(raw["rotation"]["yaw"], ShouldAlmostEqual, math.Pi/2)
				So(raw["angular_velocity"], ShouldContainKey, "x")
			})
		})

		Convey("When converted to desired state", func() {
			s := p.ToState()
			So(*s.Location.Z, ShouldEqual, 50)
			So(*s.Rotation.Yaw, ShouldAlmostEqual, math.Pi/2)
			So(*s.Velocity.X, ShouldEqual, 0)
		})
	})
}

func TestDistProperties(t *testing.T) {
	coord := rapid.Float64Range(-10000, 10000)
	rapid.Check(t, func(t *rapid.T) {
		a := geom.Vec(coord.Draw(t, "ax"), coord.Draw(t, "ay"), coord.Draw(t, "az"))
		b := geom.Vec(coord.Draw(t, "bx"), coord.Draw(t, "by"), coord.Draw(t, "bz"))

		if d := a.Dist(a); d != 0 {
			t.Fatalf("distance to self is %v", d)
		}
		if math.Abs(a.Dist(b)-b.Dist(a)) > 1e-9 {
			t.Fatalf("distance not symmetric: %v vs %v", a.Dist(b), b.Dist(a))
		}
		if a.Dist(b) < 0 {
			t.Fatalf("negative distance")
		}
	})
}
