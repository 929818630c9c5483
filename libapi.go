package ddsflow

import (
	runtimepkg "github.com/drblury/ddsflow/internal/runtime"
	configpkg "github.com/drblury/ddsflow/internal/runtime/config"
	errspkg "github.com/drblury/ddsflow/internal/runtime/errors"
	idspkg "github.com/drblury/ddsflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/ddsflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/ddsflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/ddsflow/internal/runtime/metadata"
	transportpkg "github.com/drblury/ddsflow/transport"

	// The channel transport backs the default Config, so a zero-value Config
	// works without further imports. Other transports are opt-in.
	_ "github.com/drblury/ddsflow/transport/channel"
)

type (
	Config      = configpkg.Config
	Participant = runtimepkg.Participant
	Factory     = runtimepkg.Factory

	Publisher[T any]        = runtimepkg.Publisher[T]
	Subscriber[T any]       = runtimepkg.Subscriber[T]
	PublisherOption[T any]  = runtimepkg.PublisherOption[T]
	SubscriberOption[T any] = runtimepkg.SubscriberOption[T]

	QoSProfile      = runtimepkg.QoSProfile
	ReliabilityKind = runtimepkg.ReliabilityKind

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	// Modular transport types
	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
)

// Reliability QoS kinds.
const (
	BestEffort = runtimepkg.BestEffort
	Reliable   = runtimepkg.Reliable
)

// Config defaults applied by the participant factory.
const (
	DefaultTransport              = configpkg.DefaultTransport
	DefaultDiscoveryAnnouncements = configpkg.DefaultDiscoveryAnnouncements
	DefaultDiscoveryInterval      = configpkg.DefaultDiscoveryInterval
)

var (
	NewDomainParticipant = runtimepkg.NewDomainParticipant
	DefaultFactory       = runtimepkg.DefaultFactory
	ValidateConfig       = configpkg.ValidateConfig

	DefaultQoS = runtimepkg.DefaultQoS

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NopLogger                 = loggingpkg.Nop

	NewMetadata = metadatapkg.New
	NewGUID     = idspkg.NewGUID

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal
	Encode    = jsoncodec.Encode
	Decode    = jsoncodec.Decode

	// Modular transport registry.
	// Import individual transports via: _ "github.com/drblury/ddsflow/transport/nats"
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetTransportCapabilities = transportpkg.GetCapabilities

	ErrParticipantRequired  = errspkg.ErrParticipantRequired
	ErrParticipantClosed    = errspkg.ErrParticipantClosed
	ErrInvalidDomainID      = errspkg.ErrInvalidDomainID
	ErrTopicRequired        = errspkg.ErrTopicRequired
	ErrDataCallbackRequired = errspkg.ErrDataCallbackRequired
	ErrTypeMismatch         = errspkg.ErrTypeMismatch
	ErrPublisherClosed      = errspkg.ErrPublisherClosed
	ErrSubscriberClosed     = errspkg.ErrSubscriberClosed
	ErrLoggerRequired       = errspkg.ErrLoggerRequired
	ErrConfigRequired       = errspkg.ErrConfigRequired
)

func NewPublisher[T any](participant *Participant, topic string, opts ...PublisherOption[T]) (*Publisher[T], error) {
	return runtimepkg.NewPublisher(participant, topic, opts...)
}

func NewSubscriber[T any](participant *Participant, topic string, onData func(T), opts ...SubscriberOption[T]) (*Subscriber[T], error) {
	return runtimepkg.NewSubscriber(participant, topic, onData, opts...)
}

// RegisterQoSDefaults overrides the QoS defaults applied when publishers and
// subscribers of data type T are constructed without explicit options.
func RegisterQoSDefaults[T any](profile QoSProfile) {
	runtimepkg.RegisterQoSDefaults[T](profile)
}

// QoSDefaultsFor returns the QoS profile in effect for data type T.
func QoSDefaultsFor[T any]() QoSProfile {
	return runtimepkg.QoSDefaultsFor[T]()
}

// WithWriterReliability overrides the writer reliability QoS for one publisher.
func WithWriterReliability[T any](kind ReliabilityKind) PublisherOption[T] {
	return runtimepkg.WithWriterReliability[T](kind)
}

// WithPublisherMatchFunc installs a first-match/last-unmatch callback on a
// publisher.
func WithPublisherMatchFunc[T any](fn func(pub *Publisher[T], matched bool)) PublisherOption[T] {
	return runtimepkg.WithPublisherMatchFunc[T](fn)
}

// WithReaderReliability overrides the reader reliability QoS for one subscriber.
func WithReaderReliability[T any](kind ReliabilityKind) SubscriberOption[T] {
	return runtimepkg.WithReaderReliability[T](kind)
}

// WithHistoryDepth overrides the subscriber's sample queue depth.
func WithHistoryDepth[T any](depth int) SubscriberOption[T] {
	return runtimepkg.WithHistoryDepth[T](depth)
}

// WithSubscriberMatchFunc installs a first-match/last-unmatch callback on a
// subscriber.
func WithSubscriberMatchFunc[T any](fn func(matched bool)) SubscriberOption[T] {
	return runtimepkg.WithSubscriberMatchFunc[T](fn)
}
