package protocol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/internal/constant"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloadTypedRoundTrip(t *testing.T) {
	guild := model.NewGuild("Ironclad", "IRON", uuid.New(), 0)

	data, err := ToData(GuildSyncPayload{Guild: guild.Snapshot()})
	require.NoError(t, err)

	packet := model.NewPacket(constant.ActionGuildSync, data)
	raw, err := Encode(packet)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)

	payload, err := DecodePayload(decoded)
	require.NoError(t, err)

	sync, ok := payload.(*GuildSyncPayload)
	require.True(t, ok)
	require.Equal(t, guild.Id, sync.Guild.Id)
	require.Equal(t, "Ironclad", sync.Guild.Name)
	require.Equal(t, guild.LeaderId, sync.Guild.LeaderId)
	require.Equal(t, model.RoleLeader, sync.Guild.Members[guild.LeaderId])
}

func TestDecodePayloadWarp(t *testing.T) {
	partyId := uuid.New()
	data, err := ToData(PartyWarpPayload{PartyId: partyId, Server: "skyblock-7"})
	require.NoError(t, err)

	payload, err := DecodePayload(model.NewPacket(constant.ActionPartyWarp, data))
	require.NoError(t, err)

	warp, ok := payload.(*PartyWarpPayload)
	require.True(t, ok)
	require.Equal(t, partyId, warp.PartyId)
	require.Equal(t, "skyblock-7", warp.Server)
}

func TestDecodePayloadUnknownActionPassesRawMap(t *testing.T) {
	packet := model.NewPacket("totally_new_action", map[string]any{"k": "v"})

	payload, err := DecodePayload(packet)
	require.NoError(t, err)

	data, ok := payload.(map[string]any)
	require.True(t, ok, "unknown actions must stay wire compatible")
	require.Equal(t, "v", data["k"])
}

func TestDecodePayloadShapeMismatch(t *testing.T) {
	packet := model.NewPacket(constant.ActionPartyWarp, map[string]any{
		"party_id": "not-a-uuid",
	})

	_, err := DecodePayload(packet)
	require.Error(t, err)
}
