package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/ddsflow/transport"
)

type mockConfig struct {
	natsURL string
}

func (m *mockConfig) GetTransport() string          { return TransportName }
func (m *mockConfig) GetDomainID() int              { return 0 }
func (m *mockConfig) GetNATSURL() string            { return m.natsURL }
func (m *mockConfig) GetKafkaBrokers() []string     { return nil }
func (m *mockConfig) GetKafkaConsumerGroup() string { return "" }
func (m *mockConfig) GetRabbitMQURL() string        { return "" }
func (m *mockConfig) GetAWSRegion() string          { return "" }
func (m *mockConfig) GetAWSAccountID() string       { return "" }
func (m *mockConfig) GetAWSAccessKeyID() string     { return "" }
func (m *mockConfig) GetAWSSecretAccessKey() string { return "" }
func (m *mockConfig) GetAWSEndpoint() string        { return "" }

type mockPublisher struct{}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error { return nil }
func (m *mockPublisher) Close() error                                             { return nil }

type mockSubscriber struct{}

func (m *mockSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return make(chan *message.Message), nil
}
func (m *mockSubscriber) Close() error { return nil }

func TestRegister(t *testing.T) {
	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "nats", caps.Name)
	assert.False(t, caps.SupportsAck, "NATS Core is fire-and-forget")
	assert.False(t, caps.HonorsReliableQoS())
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.NATSCapabilities, Capabilities())
}

func TestBuildUsesFactories(t *testing.T) {
	originalPub := PublisherFactory
	originalSub := SubscriberFactory
	defer func() {
		PublisherFactory = originalPub
		SubscriberFactory = originalSub
	}()

	mockPub := &mockPublisher{}
	mockSub := &mockSubscriber{}
	var pubURL, subURL string

	PublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		pubURL = cfg.URL
		return mockPub, nil
	}
	SubscriberFactory = func(cfg wmnats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		subURL = cfg.URL
		return mockSub, nil
	}

	cfg := &mockConfig{natsURL: "nats://localhost:4222"}
	tr, err := Build(context.Background(), cfg, watermill.NopLogger{})

	require.NoError(t, err)
	assert.Equal(t, mockPub, tr.Publisher)
	assert.Equal(t, mockSub, tr.Subscriber)
	assert.Equal(t, "nats://localhost:4222", pubURL)
	assert.Equal(t, "nats://localhost:4222", subURL)
}

func TestBuildPublisherError(t *testing.T) {
	originalPub := PublisherFactory
	defer func() { PublisherFactory = originalPub }()

	wantErr := errors.New("connection refused")
	PublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return nil, wantErr
	}

	_, err := Build(context.Background(), &mockConfig{}, watermill.NopLogger{})
	assert.ErrorIs(t, err, wantErr)
}

func TestBuildSubscriberError(t *testing.T) {
	originalPub := PublisherFactory
	originalSub := SubscriberFactory
	defer func() {
		PublisherFactory = originalPub
		SubscriberFactory = originalSub
	}()

	PublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return &mockPublisher{}, nil
	}
	wantErr := errors.New("subscribe failed")
	SubscriberFactory = func(cfg wmnats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return nil, wantErr
	}

	_, err := Build(context.Background(), &mockConfig{}, watermill.NopLogger{})
	assert.ErrorIs(t, err, wantErr)
}
