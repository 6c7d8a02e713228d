// Package game mirrors the host framework's wire types: tick packets,
// desired game state, match configuration and render commands.
package game

// Vector3 is a packet-side vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotator is a packet-side orientation.
type Rotator struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Physics is a car's or ball's physics as reported by the host.
type Physics struct {
	Location        Vector3 `json:"location"`
	Rotation        Rotator `json:"rotation"`
	Velocity        Vector3 `json:"velocity"`
	AngularVelocity Vector3 `json:"angular_velocity"`
}

// ScoreInfo is the per-car scoreboard.
type ScoreInfo struct {
	Score       int `json:"score"`
	Goals       int `json:"goals"`
	Demolitions int `json:"demolitions"`
}

// Car is one entry of Packet.Cars.
type Car struct {
	Name         string    `json:"name"`
	IsBot        bool      `json:"is_bot"`
	Team         int       `json:"team"`
	SpawnID      int32     `json:"spawn_id"`
	IsDemolished bool      `json:"is_demolished"`
	Boost        float64   `json:"boost"`
	Physics      Physics   `json:"physics"`
	ScoreInfo    ScoreInfo `json:"score_info"`
}

// GameInfo carries match clock state.
type GameInfo struct {
	SecondsElapsed float64 `json:"seconds_elapsed"`
	IsRoundActive  bool    `json:"is_round_active"`
	IsMatchEnded   bool    `json:"is_match_ended"`
}

// Packet is a single game tick snapshot.
type Packet struct {
	GameInfo GameInfo `json:"game_info"`
	Cars     []Car    `json:"game_cars"`
	Ball     Physics  `json:"ball"`
}

// Car returns the car at index and whether the index is valid.
func (p *Packet) Car(index int) (Car, bool) {
	if index < 0 || index >= len(p.Cars) {
		return Car{}, false
	}
	return p.Cars[index], true
}
