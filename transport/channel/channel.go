// Package channel provides an in-memory Go channel transport for ddsflow.
// All participants in the same process and domain share one bus, so
// publishers and subscribers created on different participants still see each
// other — the in-process equivalent of a DDS domain.
package channel

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/ddsflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

// OutputChannelBuffer sizes the per-subscriber buffer. Publishing from a match
// callback must not block on the subscriber it is being dispatched for.
const OutputChannelBuffer = 64

// Factory allows overriding the bus creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

var (
	busesMu sync.Mutex
	buses   = map[int]*domainBus{}
)

// domainBus wraps the shared per-domain GoChannel so that closing one
// participant's transport does not tear the bus away from the others.
type domainBus struct {
	*gochannel.GoChannel
	domain int
	refs   int
}

func (b *domainBus) Close() error {
	busesMu.Lock()
	defer busesMu.Unlock()

	b.refs--
	if b.refs > 0 {
		return nil
	}
	delete(buses, b.domain)
	return b.GoChannel.Close()
}

// busHandle hands each participant its own closable view of the shared bus.
type busHandle struct {
	*domainBus
	once sync.Once
	err  error
}

func (h *busHandle) Close() error {
	h.once.Do(func() {
		h.err = h.domainBus.Close()
	})
	return h.err
}

func init() {
	Register()
}

// Register registers the channel transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
}

// Build returns a transport backed by the shared bus of the config's domain,
// creating the bus on first use.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	domain := cfg.GetDomainID()

	busesMu.Lock()
	bus, ok := buses[domain]
	if !ok {
		bus = &domainBus{
			GoChannel: Factory(gochannel.Config{OutputChannelBuffer: OutputChannelBuffer}, logger),
			domain:    domain,
		}
		buses[domain] = bus
	}
	bus.refs++
	busesMu.Unlock()

	handle := &busHandle{domainBus: bus}
	return transport.Transport{
		Publisher:  handle,
		Subscriber: handle,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}
