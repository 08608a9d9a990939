package eventbus

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/amirasaad/wallet/pkg/domain/events"
)

// envelope is the wire form shared by the Redis and Kafka transports.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	out, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("envelope marshal failed: %w", err)
	}
	return out, nil
}

// decode rebuilds the typed event from an envelope using events.EventTypes.
// Events come back by value, the same shape the emitter passed in.
func decode(raw []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	constructor, ok := events.EventTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	if v := reflect.ValueOf(evt); v.Kind() == reflect.Pointer {
		if value, ok := v.Elem().Interface().(events.Event); ok {
			return value, nil
		}
	}
	return evt, nil
}

func topicNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", strings.TrimSpace(prefix), strings.ToLower(eventType))
}

func dlqNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.dlq.%s", strings.TrimSpace(prefix), strings.ToLower(eventType))
}
