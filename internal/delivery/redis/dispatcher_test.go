package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/lodestonenet/lodestone/internal/protocol"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTransport loops published messages back to local subscribers.
type fakeTransport struct {
	mu        sync.Mutex
	subs      map[string]chan Inbound
	published []Inbound
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{subs: map[string]chan Inbound{}}
}

func (t *fakeTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published = append(t.published, Inbound{Channel: channel, Payload: payload})
	if sub, ok := t.subs[channel]; ok {
		sub <- Inbound{Channel: channel, Payload: payload}
	}
	return nil
}

func (t *fakeTransport) Subscribe(ctx context.Context, channel string) (<-chan Inbound, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub := make(chan Inbound, 16)
	t.subs[channel] = sub
	return sub, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, sub := range t.subs {
		close(sub)
	}
	t.subs = map[string]chan Inbound{}
	return nil
}

func TestDispatcherRoutesToRegisteredHandler(t *testing.T) {
	transport := newFakeTransport()
	dispatcher := newDispatcher(zap.NewNop(), transport)

	received := make(chan *model.Packet, 1)
	dispatcher.RegisterHandler("test:channel", func(ctx context.Context, packet *model.Packet) {
		received <- packet
	})

	require.NoError(t, dispatcher.Listen(context.Background(), "test:channel"))
	require.NoError(t, dispatcher.Send(context.Background(), "test:channel", "test_action", map[string]any{"k": "v"}))

	select {
	case packet := <-received:
		require.Equal(t, "test_action", packet.Action)
		require.Equal(t, "v", packet.Data["k"])
		require.NotZero(t, packet.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received the packet")
	}

	stats := dispatcher.Stats()
	require.Equal(t, uint64(1), stats.Handled)
	require.Equal(t, uint64(1), stats.Published)
	require.Equal(t, uint64(0), stats.Dropped)
}

func TestDispatcherDropsUnroutableChannel(t *testing.T) {
	dispatcher := newDispatcher(zap.NewNop(), newFakeTransport())

	packet := model.NewPacket("orphan_action", nil)
	raw, err := protocol.Encode(packet)
	require.NoError(t, err)

	// No handler registered: must drop, not panic.
	dispatcher.HandleMessage(context.Background(), "nobody:listens", raw)

	stats := dispatcher.Stats()
	require.Equal(t, uint64(1), stats.Dropped)
	require.Equal(t, uint64(0), stats.Handled)
}

func TestDispatcherDropsMalformedMessage(t *testing.T) {
	dispatcher := newDispatcher(zap.NewNop(), newFakeTransport())

	invoked := false
	dispatcher.RegisterHandler("test:channel", func(ctx context.Context, packet *model.Packet) {
		invoked = true
	})

	dispatcher.HandleMessage(context.Background(), "test:channel", []byte("{garbage"))

	require.False(t, invoked)
	require.Equal(t, uint64(1), dispatcher.Stats().Dropped)
}

func TestDispatcherLastRegistrationWins(t *testing.T) {
	dispatcher := newDispatcher(zap.NewNop(), newFakeTransport())

	var handledBy string
	dispatcher.RegisterHandler("test:channel", func(ctx context.Context, packet *model.Packet) {
		handledBy = "first"
	})
	dispatcher.RegisterHandler("test:channel", func(ctx context.Context, packet *model.Packet) {
		handledBy = "second"
	})

	raw, err := protocol.Encode(model.NewPacket("test_action", nil))
	require.NoError(t, err)
	dispatcher.HandleMessage(context.Background(), "test:channel", raw)

	require.Equal(t, "second", handledBy)
}

func TestSendPayloadEncodesTypedPayload(t *testing.T) {
	transport := newFakeTransport()
	dispatcher := newDispatcher(zap.NewNop(), transport)

	err := dispatcher.SendPayload(context.Background(), "test:channel", "party_warp", protocol.PartyWarpPayload{
		Server: "skyblock-7",
	})
	require.NoError(t, err)

	require.Len(t, transport.published, 1)
	packet, err := protocol.Decode(transport.published[0].Payload)
	require.NoError(t, err)
	require.Equal(t, "party_warp", packet.Action)
	require.Equal(t, "skyblock-7", packet.Data["server"])
}

func TestInitializeReturnsSameInstance(t *testing.T) {
	first := Initialize(zap.NewNop(), newFakeTransport())
	second := Initialize(zap.NewNop(), newFakeTransport())
	require.Same(t, first, second)
}
