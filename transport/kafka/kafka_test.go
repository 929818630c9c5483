package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/ddsflow/transport"
)

type mockConfig struct {
	brokers       []string
	consumerGroup string
}

func (m *mockConfig) GetTransport() string          { return TransportName }
func (m *mockConfig) GetDomainID() int              { return 0 }
func (m *mockConfig) GetNATSURL() string            { return "" }
func (m *mockConfig) GetKafkaBrokers() []string     { return m.brokers }
func (m *mockConfig) GetKafkaConsumerGroup() string { return m.consumerGroup }
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
	assert.Equal(t, "kafka", caps.Name)
	assert.True(t, caps.SupportsPartitioning)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.KafkaCapabilities, Capabilities())
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
	var pubBrokers []string
	var subGroup string

	PublisherFactory = func(cfg wmkafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		pubBrokers = cfg.Brokers
		return mockPub, nil
	}
	SubscriberFactory = func(cfg wmkafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		subGroup = cfg.ConsumerGroup
		return mockSub, nil
	}

	cfg := &mockConfig{brokers: []string{"localhost:9092"}, consumerGroup: "reader-1"}
	tr, err := Build(context.Background(), cfg, watermill.NopLogger{})

	require.NoError(t, err)
	assert.Equal(t, mockPub, tr.Publisher)
	assert.Equal(t, mockSub, tr.Subscriber)
	assert.Equal(t, []string{"localhost:9092"}, pubBrokers)
	assert.Equal(t, "reader-1", subGroup)
}

func TestBuildPublisherError(t *testing.T) {
	originalPub := PublisherFactory
	defer func() { PublisherFactory = originalPub }()

	wantErr := errors.New("no brokers")
	PublisherFactory = func(cfg wmkafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return nil, wantErr
	}

	_, err := Build(context.Background(), &mockConfig{}, watermill.NopLogger{})
	assert.ErrorIs(t, err, wantErr)
}
