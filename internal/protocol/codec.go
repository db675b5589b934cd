package protocol

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/internal/model"
)

// MalformedPacketError reports an inbound message that could not be
// decoded into a packet. Dispatch logs it and drops the message; it
// never crashes the subscribe loop.
type MalformedPacketError struct {
	Reason string
	Cause  error
}

func (e *MalformedPacketError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed packet: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed packet: %s", e.Reason)
}

func (e *MalformedPacketError) Unwrap() error {
	return e.Cause
}

// Encode serializes a packet to its JSON wire form.
func Encode(p *model.Packet) ([]byte, error) {
	return sonic.Marshal(p)
}

// Decode is the inverse of Encode. Data values come back as the JSON
// types (string, float64, bool, nested map/slice); receivers interpret
// them by action, usually through DecodePayload.
func Decode(raw []byte) (*model.Packet, error) {
	var p model.Packet
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return nil, &MalformedPacketError{Reason: "invalid json", Cause: err}
	}
	if p.Id == uuid.Nil {
		return nil, &MalformedPacketError{Reason: "missing packet id"}
	}
	if p.Action == "" {
		return nil, &MalformedPacketError{Reason: "missing action"}
	}
	if p.Timestamp <= 0 {
		return nil, &MalformedPacketError{Reason: "missing timestamp"}
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	return &p, nil
}
