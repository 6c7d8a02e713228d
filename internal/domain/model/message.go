// Package model contains the matchcomms message types exchanged between the
// runner and competitor processes.
package model

import (
	"encoding/json"
	"time"
)

// Message is one inbound matchcomms broadcast. Raw holds the JSON text
// exactly as received.
type Message struct {
	Raw      json.RawMessage
	Received time.Time
}

// ReadyMessage is sent by a competitor once it is able to take part:
//
//	{"readyForTrackAndField": true, "supportedEvents": ["WaypointRace"]}
type ReadyMessage struct {
	ReadyForTrackAndField bool     `json:"readyForTrackAndField"`
	SupportedEvents       []string `json:"supportedEvents"`
}

// NewMessage wraps raw JSON received now.
func NewMessage(raw []byte) Message {
	return Message{Raw: json.RawMessage(raw), Received: time.Now()}
}

// Decode unmarshals the message into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Raw, v)
}

// Ready decodes the message as a ready handshake. Messages that are not JSON
// objects or do not claim readiness report false.
func (m Message) Ready() (ReadyMessage, bool) {
	var r ReadyMessage
	if err := m.Decode(&r); err != nil {
		return ReadyMessage{}, false
	}
	return r, r.ReadyForTrackAndField
}

// EventType returns the "event_type" field of an event specification, or ""
// when absent.
func (m Message) EventType() string {
	var head struct {
		EventType string `json:"event_type"`
	}
	if err := m.Decode(&head); err != nil {
		return ""
	}
	return head.EventType
}
