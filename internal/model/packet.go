package model

import (
	"time"

	"github.com/google/uuid"
)

// Packet is the unit of cross-process communication. Identity is the
// Id; Timestamp is milliseconds since epoch. Data is free-form on the
// wire, receivers interpret it by Action (see internal/protocol).
type Packet struct {
	Id        uuid.UUID      `json:"id"`
	Timestamp int64          `json:"timestamp"`
	Action    string         `json:"action"`
	Data      map[string]any `json:"data"`
}

// NewPacket builds a packet with a fresh random id and the current
// timestamp. Callers never supply either.
func NewPacket(action string, data map[string]any) *Packet {
	if data == nil {
		data = map[string]any{}
	}
	return &Packet{
		Id:        uuid.New(),
		Timestamp: time.Now().UTC().UnixMilli(),
		Action:    action,
		Data:      data,
	}
}
