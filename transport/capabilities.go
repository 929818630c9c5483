package transport

// Capabilities describes the features supported by a transport backend. The
// wrapper layer never changes its behavior based on these — QoS negotiation
// happens at match time — but applications can introspect what the backend can
// actually honor.
type Capabilities struct {
	// SupportsOrdering indicates the backend guarantees sample ordering from a
	// single writer. Without it, reliable QoS still delivers every sample but
	// arrival order is the backend's.
	SupportsOrdering bool

	// SupportsAck indicates the backend supports explicit acknowledgment.
	SupportsAck bool

	// SupportsNack indicates the backend supports negative acknowledgment
	// (redelivery).
	SupportsNack bool

	// SupportsPartitioning indicates the backend shards topics.
	SupportsPartitioning bool

	// MaxMessageSize is the maximum sample size in bytes (0 = unlimited/unknown).
	MaxMessageSize int64

	// Name is the human-readable name of the transport.
	Name string

	// Version is the transport/driver version.
	Version string
}

// HonorsReliableQoS reports whether the backend can actually back a Reliable
// writer's delivery guarantee (at-least-once via ack + redelivery). A Reliable
// endpoint on a backend without it still matches; delivery is then only as good
// as the backend.
func (c Capabilities) HonorsReliableQoS() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets for the built-in transports.
var (
	// ChannelCapabilities for the in-memory per-domain Go channel bus.
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	// NATSCapabilities for NATS Core. Fire-and-forget: best-effort only.
	NATSCapabilities = Capabilities{
		Name:           "nats",
		MaxMessageSize: 1048576, // Default 1MB
	}

	// NATSJetStreamCapabilities for NATS JetStream.
	NATSJetStreamCapabilities = Capabilities{
		Name:             "nats-jetstream",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		MaxMessageSize:   1048576, // Default 1MB
	}

	// KafkaCapabilities for Apache Kafka.
	KafkaCapabilities = Capabilities{
		Name:                 "kafka",
		SupportsOrdering:     true,
		SupportsAck:          true,
		SupportsPartitioning: true,
		MaxMessageSize:       1048576, // Default 1MB
	}

	// RabbitMQCapabilities for RabbitMQ/AMQP.
	RabbitMQCapabilities = Capabilities{
		Name:             "rabbitmq",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	// AWSCapabilities for AWS SNS/SQS.
	AWSCapabilities = Capabilities{
		Name:             "aws",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		MaxMessageSize:   262144, // 256KB
	}
)

// GetCapabilities returns the capabilities for a transport by name, using the
// default registry. Returns a zero Capabilities struct if the transport is
// unknown.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}
