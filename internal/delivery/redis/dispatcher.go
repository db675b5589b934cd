package redis

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/lodestonenet/lodestone/internal/protocol"
	"go.uber.org/zap"
)

// Handler consumes one decoded packet. Handlers on the same channel
// run sequentially; handlers on different channels may run in
// parallel.
type Handler func(ctx context.Context, packet *model.Packet)

// Dispatcher routes inbound raw messages to the handler registered for
// their channel and builds outbound packets. One instance exists per
// process.
type Dispatcher struct {
	log       *zap.Logger
	transport Transport

	mu       sync.RWMutex
	handlers map[string]Handler

	handled   atomic.Uint64
	dropped   atomic.Uint64
	published atomic.Uint64
}

var (
	initOnce sync.Once
	instance *Dispatcher
)

// Initialize constructs the process-wide dispatcher. The first call
// wins; later calls are no-ops that return the existing instance.
func Initialize(log *zap.Logger, transport Transport) *Dispatcher {
	initOnce.Do(func() {
		instance = newDispatcher(log, transport)
	})
	return instance
}

// NewDispatcher constructs a dispatcher outside the process-wide
// singleton. Tests that simulate several peer processes in one test
// binary need more than one.
func NewDispatcher(log *zap.Logger, transport Transport) *Dispatcher {
	return newDispatcher(log, transport)
}

func newDispatcher(log *zap.Logger, transport Transport) *Dispatcher {
	return &Dispatcher{
		log:       log,
		transport: transport,
		handlers:  map[string]Handler{},
	}
}

// RegisterHandler binds a channel to a handler. At most one handler
// per channel: registering again replaces the previous one.
func (d *Dispatcher) RegisterHandler(channel string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[channel] = handler
}

// HandleMessage decodes raw and invokes the channel's handler
// synchronously. Decode failures and unroutable channels drop the
// message; neither propagates to the transport.
func (d *Dispatcher) HandleMessage(ctx context.Context, channel string, raw []byte) {
	packet, err := protocol.Decode(raw)
	if err != nil {
		d.dropped.Add(1)
		d.log.Error("dropping undecodable message",
			zap.String("channel", channel),
			zap.Error(err))
		return
	}

	d.mu.RLock()
	handler, ok := d.handlers[channel]
	d.mu.RUnlock()
	if !ok {
		d.dropped.Add(1)
		d.log.Warn("dropping message for unroutable channel",
			zap.String("channel", channel),
			zap.String("action", packet.Action))
		return
	}

	handler(ctx, packet)
	d.handled.Add(1)
}

// Listen subscribes to each channel and drains it on its own
// goroutine, preserving per-channel order. It returns after all
// subscriptions are established; delivery runs until ctx ends.
func (d *Dispatcher) Listen(ctx context.Context, channels ...string) error {
	for _, channel := range channels {
		inbound, err := d.transport.Subscribe(ctx, channel)
		if err != nil {
			return err
		}
		ch := channel
		go func() {
			for msg := range inbound {
				d.HandleMessage(ctx, ch, msg.Payload)
			}
			d.log.Info("channel subscription closed", zap.String("channel", ch))
		}()
	}
	return nil
}

// Send builds a packet with a fresh id and timestamp, encodes it and
// publishes it on the channel.
func (d *Dispatcher) Send(ctx context.Context, channel, action string, data map[string]any) error {
	packet := model.NewPacket(action, data)
	raw, err := protocol.Encode(packet)
	if err != nil {
		return err
	}
	if err := d.transport.Publish(ctx, channel, raw); err != nil {
		return err
	}
	d.published.Add(1)
	return nil
}

// SendPayload is Send for a typed payload from the protocol registry.
func (d *Dispatcher) SendPayload(ctx context.Context, channel, action string, payload any) error {
	data, err := protocol.ToData(payload)
	if err != nil {
		return err
	}
	return d.Send(ctx, channel, action, data)
}

// Stats are the counters shown on the ops surface.
type Stats struct {
	Handled   uint64 `json:"handled"`
	Dropped   uint64 `json:"dropped"`
	Published uint64 `json:"published"`
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Handled:   d.handled.Load(),
		Dropped:   d.dropped.Load(),
		Published: d.published.Load(),
	}
}
