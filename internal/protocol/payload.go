package protocol

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/internal/constant"
	"github.com/lodestonenet/lodestone/internal/model"
)

// One payload shape per action. The wire stays a free-form data map,
// but both ends agree on the shape through this registry instead of
// poking at untyped keys.

type GuildSyncPayload struct {
	Guild model.GuildSnapshot `json:"guild"`
}

type GuildDisbandPayload struct {
	GuildId uuid.UUID `json:"guild_id"`
}

type PartySyncPayload struct {
	Party model.PartySnapshot `json:"party"`
}

type PartyDisbandPayload struct {
	PartyId uuid.UUID `json:"party_id"`
}

type PartyWarpPayload struct {
	PartyId uuid.UUID `json:"party_id"`
	Server  string    `json:"server"`
}

type FriendRequestPayload struct {
	RequestId   uuid.UUID `json:"request_id"`
	SenderId    uuid.UUID `json:"sender_id"`
	ReceiverId  uuid.UUID `json:"receiver_id"`
	RequestedAt time.Time `json:"requested_at"`
}

type FriendAcceptPayload struct {
	RequestId  uuid.UUID        `json:"request_id"`
	Friendship model.Friendship `json:"friendship"`
}

type FriendDeclinePayload struct {
	RequestId uuid.UUID `json:"request_id"`
}

type FriendRemovePayload struct {
	FriendshipId uuid.UUID `json:"friendship_id"`
	Player1Id    uuid.UUID `json:"player1_id"`
	Player2Id    uuid.UUID `json:"player2_id"`
}

type StorageSyncPayload struct {
	Storage model.StorageSnapshot `json:"storage"`
}

var payloadTypes = map[string]func() any{
	constant.ActionGuildSync:     func() any { return &GuildSyncPayload{} },
	constant.ActionGuildDisband:  func() any { return &GuildDisbandPayload{} },
	constant.ActionPartySync:     func() any { return &PartySyncPayload{} },
	constant.ActionPartyDisband:  func() any { return &PartyDisbandPayload{} },
	constant.ActionPartyWarp:     func() any { return &PartyWarpPayload{} },
	constant.ActionFriendRequest: func() any { return &FriendRequestPayload{} },
	constant.ActionFriendAccept:  func() any { return &FriendAcceptPayload{} },
	constant.ActionFriendDecline: func() any { return &FriendDeclinePayload{} },
	constant.ActionFriendRemove:  func() any { return &FriendRemovePayload{} },
	constant.ActionStorageSync:   func() any { return &StorageSyncPayload{} },
}

// DecodePayload converts a packet's data map into the typed payload
// registered for its action. Unknown actions pass the raw map through
// so new packet kinds stay wire-compatible with old processes.
func DecodePayload(p *model.Packet) (any, error) {
	prototype, ok := payloadTypes[p.Action]
	if !ok {
		return p.Data, nil
	}
	raw, err := sonic.Marshal(p.Data)
	if err != nil {
		return nil, &MalformedPacketError{Reason: "unencodable data map", Cause: err}
	}
	payload := prototype()
	if err := sonic.Unmarshal(raw, payload); err != nil {
		return nil, &MalformedPacketError{Reason: "payload does not match action " + p.Action, Cause: err}
	}
	return payload, nil
}

// ToData flattens a typed payload into the packet data map.
func ToData(payload any) (map[string]any, error) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
