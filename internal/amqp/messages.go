package amqp

import (
	"encoding/json"
	"fmt"

	"spenny/internal/core"
)

// EncodeEvent serialises an event for the wire.
func EncodeEvent(ev core.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a delivery body. An event without a type is rejected.
func DecodeEvent(data []byte) (core.Event, error) {
	var ev core.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.Event{}, err
	}
	if ev.Type == "" {
		return core.Event{}, fmt.Errorf("event without type")
	}
	return ev, nil
}
