package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ripplechat/ripple/internal/domain"
)

// validate is shared across signal decoding; the validator caches struct
// metadata so a single instance is cheaper.
var validate = validator.New()

// Signal is the envelope of every inbound client frame. The shape mirrors
// the outbound Frame so clients speak one protocol in both directions.
type Signal struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data"`
}

// ConnectPayload announces the connection's user identity.
type ConnectPayload struct {
	UserID string `json:"userId" validate:"required"`
}

// StatusPayload carries an explicit presence override.
type StatusPayload struct {
	Status domain.PresenceStatus `json:"status" validate:"required,oneof=online away offline"`
}

// RoomPayload names the conversation of a join or leave request.
type RoomPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// TypingPayload names the conversation of a typing transition.
type TypingPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// decodeSignal parses and validates an inbound frame envelope.
func decodeSignal(raw []byte) (Signal, error) {
	var sig Signal
	if err := json.Unmarshal(raw, &sig); err != nil {
		return Signal{}, fmt.Errorf("parse signal: %w", err)
	}
	if err := validate.Struct(sig); err != nil {
		return Signal{}, fmt.Errorf("validate signal: %w", err)
	}
	return sig, nil
}

// decodePayload parses and validates a signal's data against the expected
// payload shape.
func decodePayload[T any](sig Signal) (T, error) {
	var payload T
	if err := json.Unmarshal(sig.Data, &payload); err != nil {
		return payload, fmt.Errorf("parse %s payload: %w", sig.Event, err)
	}
	if err := validate.Struct(payload); err != nil {
		return payload, fmt.Errorf("validate %s payload: %w", sig.Event, err)
	}
	return payload, nil
}
