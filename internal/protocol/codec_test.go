package protocol

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	packet := model.NewPacket("guild_sync", map[string]any{
		"name":  "Ironclad",
		"level": float64(3),
		"nested": map[string]any{
			"members": []any{"a", "b"},
			"open":    true,
		},
	})

	raw, err := Encode(packet)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)

	require.Equal(t, packet.Id, decoded.Id)
	require.Equal(t, packet.Timestamp, decoded.Timestamp)
	require.Equal(t, packet.Action, decoded.Action)
	require.Equal(t, packet.Data, decoded.Data)
}

func TestDecodeRejectsMalformedPackets(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{not json`},
		{"missing id", `{"timestamp":1700000000000,"action":"guild_sync","data":{}}`},
		{"nil id", `{"id":"00000000-0000-0000-0000-000000000000","timestamp":1700000000000,"action":"guild_sync","data":{}}`},
		{"missing action", `{"id":"` + uuid.NewString() + `","timestamp":1700000000000,"data":{}}`},
		{"missing timestamp", `{"id":"` + uuid.NewString() + `","action":"guild_sync","data":{}}`},
		{"negative timestamp", `{"id":"` + uuid.NewString() + `","timestamp":-5,"action":"guild_sync","data":{}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			require.Error(t, err)

			var malformed *MalformedPacketError
			require.True(t, errors.As(err, &malformed))
		})
	}
}

func TestDecodeDefaultsNilData(t *testing.T) {
	raw := `{"id":"` + uuid.NewString() + `","timestamp":1700000000000,"action":"guild_sync"}`

	decoded, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, decoded.Data)
	require.Empty(t, decoded.Data)
}
