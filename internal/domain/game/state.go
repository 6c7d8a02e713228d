package game

// Vector3State is a partially specified vector; nil components are left
// untouched by the host.
type Vector3State struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

// RotatorState is a partially specified orientation.
type RotatorState struct {
	Pitch *float64 `json:"pitch,omitempty"`
	Yaw   *float64 `json:"yaw,omitempty"`
	Roll  *float64 `json:"roll,omitempty"`
}

// PhysicsState is a partially specified pose.
type PhysicsState struct {
	Location        *Vector3State `json:"location,omitempty"`
	Rotation        *RotatorState `json:"rotation,omitempty"`
	Velocity        *Vector3State `json:"velocity,omitempty"`
	AngularVelocity *Vector3State `json:"angular_velocity,omitempty"`
}

// CarState is the desired state of one car.
type CarState struct {
	Physics     *PhysicsState `json:"physics,omitempty"`
	BoostAmount *float64      `json:"boost_amount,omitempty"`
}

// BallState is the desired state of the ball.
type BallState struct {
	Physics *PhysicsState `json:"physics,omitempty"`
}

// GameState is a desired state request keyed by packet index.
type GameState struct {
	Cars map[int]CarState `json:"cars,omitempty"`
	Ball *BallState       `json:"ball,omitempty"`
}

// F returns a pointer to v.
func F(v float64) *float64 { return &v }

// Zero is a fully specified zero vector.
func Zero() *Vector3State { return &Vector3State{X: F(0), Y: F(0), Z: F(0)} }

// IsEmpty reports whether the request changes nothing.
func (s GameState) IsEmpty() bool { return len(s.Cars) == 0 && s.Ball == nil }
