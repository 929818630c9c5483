package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConfig struct {
	transport string
	domainID  int
}

func (m *mockConfig) GetTransport() string          { return m.transport }
func (m *mockConfig) GetDomainID() int              { return m.domainID }
func (m *mockConfig) GetNATSURL() string            { return "" }
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

func TestRegistryBuild(t *testing.T) {
	registry := NewRegistry()

	pub := &mockPublisher{}
	sub := &mockSubscriber{}
	registry.Register("fake", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{Publisher: pub, Subscriber: sub}, nil
	})

	tr, err := registry.Build(context.Background(), &mockConfig{transport: "fake"}, watermill.NopLogger{})
	require.NoError(t, err)
	assert.Equal(t, pub, tr.Publisher)
	assert.Equal(t, sub, tr.Subscriber)
}

func TestRegistryBuildUnknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Build(context.Background(), &mockConfig{transport: "missing"}, watermill.NopLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestRegistryBuildNilConfig(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Build(context.Background(), nil, watermill.NopLogger{})
	assert.Error(t, err)
}

func TestRegistryBuildPropagatesError(t *testing.T) {
	registry := NewRegistry()
	buildErr := errors.New("connect refused")
	registry.Register("failing", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{}, buildErr
	})

	_, err := registry.Build(context.Background(), &mockConfig{transport: "failing"}, watermill.NopLogger{})
	assert.ErrorIs(t, err, buildErr)
}

func TestRegistryCapabilities(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterWithCapabilities("caps", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{}, nil
	}, Capabilities{Name: "caps", SupportsAck: true, SupportsNack: true})

	caps := registry.GetCapabilities("caps")
	assert.Equal(t, "caps", caps.Name)
	assert.True(t, caps.HonorsReliableQoS())

	unknown := registry.GetCapabilities("nope")
	assert.Equal(t, "nope", unknown.Name)
	assert.False(t, unknown.HonorsReliableQoS())
}

func TestRegistryNamesAndHas(t *testing.T) {
	registry := NewRegistry()
	assert.Empty(t, registry.Names())
	assert.False(t, registry.Has("a"))

	registry.Register("a", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{}, nil
	})
	registry.Register("b", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{}, nil
	})

	assert.ElementsMatch(t, []string{"a", "b"}, registry.Names())
	assert.True(t, registry.Has("a"))
	assert.False(t, registry.Has("c"))
}

func TestHonorsReliableQoS(t *testing.T) {
	assert.True(t, ChannelCapabilities.HonorsReliableQoS())
	assert.True(t, NATSJetStreamCapabilities.HonorsReliableQoS())
	assert.True(t, RabbitMQCapabilities.HonorsReliableQoS())
	assert.True(t, AWSCapabilities.HonorsReliableQoS())

	// NATS Core is fire-and-forget, Kafka has no per-message nack.
	assert.False(t, NATSCapabilities.HonorsReliableQoS())
	assert.False(t, KafkaCapabilities.HonorsReliableQoS())
}

type closeRecorder struct {
	mockPublisher
	mockSubscriber
	closes int
}

func (c *closeRecorder) Close() error {
	c.closes++
	return nil
}

func TestTransportCloseSharedObjectOnce(t *testing.T) {
	shared := &closeRecorder{}
	tr := Transport{Publisher: shared, Subscriber: shared}

	require.NoError(t, tr.Close())
	assert.Equal(t, 1, shared.closes, "shared publisher/subscriber must be closed once")
}

func TestTransportCloseSeparateObjects(t *testing.T) {
	pub := &closeRecorder{}
	sub := &closeRecorder{}
	tr := Transport{Publisher: pub, Subscriber: sub}

	require.NoError(t, tr.Close())
	assert.Equal(t, 1, pub.closes)
	assert.Equal(t, 1, sub.closes)
}
