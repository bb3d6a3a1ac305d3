package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Stream message fields.
const (
	FieldType = "event_type"
	FieldData = "event_data"
)

var ErrTypeMismatch = errors.New("event type mismatch")

// Event is a catalog notification sent to downstream consumers.
type Event interface {
	EventType() string
}

// Fields encodes e as the values of one stream message.
func Fields(e Event) (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.EventType(), err)
	}
	return map[string]any{
		FieldType: e.EventType(),
		FieldData: string(data),
	}, nil
}

// Decode reads a message written by Fields back into T.
// The message must carry T's event type.
func Decode[T Event](values map[string]any) (T, error) {
	var e T
	if got, _ := values[FieldType].(string); got != e.EventType() {
		return e, fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, got, e.EventType())
	}

	data, ok := values[FieldData].(string)
	if !ok {
		return e, fmt.Errorf("message has no %s", FieldData)
	}
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return e, fmt.Errorf("decode %s: %w", e.EventType(), err)
	}
	return e, nil
}
