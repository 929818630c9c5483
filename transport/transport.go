// Package transport defines the core interfaces and types for ddsflow
// transports. Each transport implementation (channel, nats, kafka, ...) lives
// in its own sub-package and registers itself with the transport registry.
//
// A transport supplies the raw message plumbing of a DDS domain: everything a
// participant publishes — data samples and discovery announcements alike —
// rides the Publisher/Subscriber pair built here. Delivery guarantees,
// reconnection, and acknowledgement semantics are entirely the backend's.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close releases the publisher and subscriber. When both are backed by the
// same object (as with the channel transport), it is closed once.
func (t Transport) Close() error {
	var pub any = t.Publisher
	var sub any = t.Subscriber

	var err error
	if t.Subscriber != nil {
		err = t.Subscriber.Close()
	}
	if t.Publisher != nil && pub != sub {
		if pubErr := t.Publisher.Close(); err == nil {
			err = pubErr
		}
	}
	return err
}

// Builder is the function signature for creating a transport from config.
// Each transport package should provide a Builder function that can be
// registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the configuration values needed by transports. The interface
// lets transports access only the config they need without depending on the
// full config package.
type Config interface {
	// GetTransport returns the transport type name.
	GetTransport() string

	// GetDomainID returns the DDS domain the participant belongs to.
	// Transports use it to isolate domains sharing one backend.
	GetDomainID() int

	// NATS
	GetNATSURL() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// AWS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}
