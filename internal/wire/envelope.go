// Package wire defines the JSON message envelope and (de)serialization
// contracts carried across every socket in the system (spec §4.J, §6).
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"fenrir/internal/common"
	"fenrir/internal/engine"
)

// Envelope is the outermost JSON object on every socket:
// {"message_type": <name>, "data": <payload>}.
type Envelope struct {
	MessageType common.MessageType `json:"message_type"`
	Data        json.RawMessage    `json:"data"`
}

// Encode wraps a payload in an Envelope and marshals it.
func Encode(messageType common.MessageType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	env := Envelope{MessageType: messageType, Data: data}
	return json.Marshal(env)
}

// DecodeEnvelope parses the outer envelope only. Unknown message_type
// values are rejected as ErrInvalidOrder (strict decode, spec §4.J).
func DecodeEnvelope(raw []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("%w: malformed envelope: %v", common.ErrInvalidOrder, err)
	}
	return env, nil
}

// DecodeOrder decodes an Order payload from data, the way OrderRouter
// decodes the body of an ORDER envelope (spec §4.F).
func DecodeOrder(data json.RawMessage) (common.Order, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var order common.Order
	if err := dec.Decode(&order); err != nil {
		return common.Order{}, fmt.Errorf("%w: malformed order: %v", common.ErrInvalidOrder, err)
	}
	return order, nil
}

// CancelPayload is the body of a CANCEL envelope (supplemental, SPEC_FULL §1).
type CancelPayload struct {
	OrderID string `json:"order_id"`
}

// DecodeCancel decodes a CancelPayload.
func DecodeCancel(data json.RawMessage) (CancelPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cancel CancelPayload
	if err := dec.Decode(&cancel); err != nil {
		return CancelPayload{}, fmt.Errorf("%w: malformed cancel: %v", common.ErrInvalidOrder, err)
	}
	return cancel, nil
}

// DecodeSnapshot decodes a Snapshot payload, the way a DATA_SNAPSHOT
// subscriber would on the egress side.
func DecodeSnapshot(data json.RawMessage) (engine.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var snap engine.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// OrchestratorCommandName is the command body of an ORCHESTRATOR_COMMAND
// envelope (supplemental, SPEC_FULL §1): "FLUSH" or "LOG_BOOK".
type OrchestratorCommandName string

const (
	CommandFlush   OrchestratorCommandName = "FLUSH"
	CommandLogBook OrchestratorCommandName = "LOG_BOOK"
)

// OrchestratorCommandPayload is the body of an ORCHESTRATOR_COMMAND envelope.
type OrchestratorCommandPayload struct {
	Command OrchestratorCommandName `json:"command"`
}

// DecodeOrchestratorCommand decodes an OrchestratorCommandPayload.
func DecodeOrchestratorCommand(data json.RawMessage) (OrchestratorCommandPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cmd OrchestratorCommandPayload
	if err := dec.Decode(&cmd); err != nil {
		return OrchestratorCommandPayload{}, fmt.Errorf("%w: malformed command: %v", common.ErrInvalidOrder, err)
	}
	switch cmd.Command {
	case CommandFlush, CommandLogBook:
	default:
		return OrchestratorCommandPayload{}, fmt.Errorf("%w: unknown command %q", common.ErrInvalidOrder, cmd.Command)
	}
	return cmd, nil
}
