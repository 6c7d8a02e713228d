// Package geom holds the position and orientation value types persisted in
// event documents and sent to competitors.
package geom

import (
	"math"

	"github.com/okian/trackfield/internal/domain/game"
)

// Vector3 is a point or direction in field coordinates (uu).
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotator is an orientation in radians.
type Rotator struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Physics is a full rigid body pose.
type Physics struct {
	Location        Vector3 `json:"location"`
	Rotation        Rotator `json:"rotation"`
	Velocity        Vector3 `json:"velocity"`
	AngularVelocity Vector3 `json:"angular_velocity"`
}

// Vec is shorthand for Vector3{x, y, z}.
func Vec(x, y, z float64) Vector3 { return Vector3{X: x, Y: y, Z: z} }

// FromGame converts a packet vector.
func FromGame(v game.Vector3) Vector3 { return Vector3{X: v.X, Y: v.Y, Z: v.Z} }

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Length returns the euclidean norm.
func (v Vector3) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Dist returns the distance between v and o.
func (v Vector3) Dist(o Vector3) float64 { return v.Sub(o).Length() }

// ToState converts to the host's desired-state vector.
func (v Vector3) ToState() *game.Vector3State {
	return &game.Vector3State{X: game.F(v.X), Y: game.F(v.Y), Z: game.F(v.Z)}
}

// ToState converts to the host's desired-state rotator.
func (r Rotator) ToState() *game.RotatorState {
	return &game.RotatorState{Pitch: game.F(r.Pitch), Yaw: game.F(r.Yaw), Roll: game.F(r.Roll)}
}

// ToState converts every component of the pose.
func (p Physics) ToState() *game.PhysicsState {
	return &game.PhysicsState{
		Location:        p.Location.ToState(),
		Rotation:        p.Rotation.ToState(),
		Velocity:        p.Velocity.ToState(),
		AngularVelocity: p.AngularVelocity.ToState(),
	}
}

// Stationary returns a pose at loc facing rot with no motion.
func Stationary(loc Vector3, rot Rotator) Physics {
	return Physics{Location: loc, Rotation: rot}
}
