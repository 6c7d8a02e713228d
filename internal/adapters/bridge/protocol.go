package bridge

import (
	"encoding/json"

	"github.com/okian/trackfield/internal/domain/game"
)

// Operations understood by the host side of the bridge.
const (
	OpPacket       = "packet"
	OpWaitPacket   = "wait_packet"
	OpSetGameState = "set_game_state"
	OpStartMatch   = "start_match"
	OpRender       = "render"
	OpClearRender  = "clear_render"
)

// Request is one call frame.
type Request struct {
	Seq  uint64          `json:"seq"`
	Op   string          `json:"op"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Response answers the Request with the same Seq.
type Response struct {
	Seq   uint64          `json:"seq"`
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// RenderBody is the body of OpRender and OpClearRender.
type RenderBody struct {
	Group    string             `json:"group"`
	Commands []game.DrawCommand `json:"commands,omitempty"`
}
