package runtime

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	dderrors "github.com/drblury/ddsflow/internal/runtime/errors"
	"github.com/drblury/ddsflow/internal/runtime/ids"
	"github.com/drblury/ddsflow/internal/runtime/logging"
	"github.com/drblury/ddsflow/internal/runtime/metadata"
)

// PublisherOption configures a Publisher at construction time.
type PublisherOption[T any] func(*publisherOptions[T])

type publisherOptions[T any] struct {
	reliability *ReliabilityKind
	onMatch     func(pub *Publisher[T], matched bool)
}

// WithWriterReliability overrides the writer reliability QoS for one
// publisher, taking precedence over the type's registered defaults.
func WithWriterReliability[T any](kind ReliabilityKind) PublisherOption[T] {
	return func(o *publisherOptions[T]) { o.reliability = &kind }
}

// WithPublisherMatchFunc installs a callback fired when the publisher gains
// its first matched subscriber (matched=true) and when it loses the last one
// (matched=false). Intermediate count changes do not fire.
func WithPublisherMatchFunc[T any](fn func(pub *Publisher[T], matched bool)) PublisherOption[T] {
	return func(o *publisherOptions[T]) { o.onMatch = fn }
}

// Publisher writes typed samples of T to one topic of a domain participant.
type Publisher[T any] struct {
	participant *Participant
	topic       string
	wireTopic   string
	guid        string
	typeName    string
	codec       Codec[T]
	reliability ReliabilityKind
	logger      logging.ServiceLogger

	onMatch func(pub *Publisher[T], matched bool)

	sequence    atomic.Uint64
	matched     atomic.Int64
	everMatched atomic.Bool
	closed      atomic.Bool
	closeOnce   sync.Once
}

// NewPublisher creates a publisher for topic on the given participant. Any
// construction step failing unwinds the steps already done, so a non-nil error
// never leaks a half-built publisher.
func NewPublisher[T any](participant *Participant, topic string, opts ...PublisherOption[T]) (*Publisher[T], error) {
	if participant == nil {
		return nil, dderrors.ErrParticipantRequired
	}
	if topic == "" {
		return nil, dderrors.ErrTopicRequired
	}

	var options publisherOptions[T]
	for _, opt := range opts {
		opt(&options)
	}
	reliability := QoSDefaultsFor[T]().WriterReliability
	if options.reliability != nil {
		reliability = *options.reliability
	}

	if err := participant.retain(); err != nil {
		return nil, err
	}
	typeName := typeNameOf[T]()
	if err := participant.registerType(topic, typeName); err != nil {
		_ = participant.release()
		return nil, err
	}

	p := &Publisher[T]{
		participant: participant,
		topic:       topic,
		wireTopic:   scopedTopic(participant.domainID, topic),
		guid:        ids.NewGUID(),
		typeName:    typeName,
		codec:       codecFor[T](),
		reliability: reliability,
		onMatch:     options.onMatch,
	}
	p.logger = participant.logger.With(logging.LogFields{
		"writer_guid": p.guid,
		"topic":       topic,
	})

	participant.discovery.addEndpoint(endpointAnnouncement{
		ParticipantGUID: participant.guid,
		EndpointGUID:    p.guid,
		Kind:            endpointWriter,
		Topic:           topic,
		TypeName:        typeName,
		Reliability:     reliability,
	}, p.handleMatch)

	p.logger.Debug("Publisher created", logging.LogFields{"reliability": reliability.String()})
	return p, nil
}

func (p *Publisher[T]) handleMatch(matched bool, total int) {
	p.matched.Store(int64(total))
	if matched {
		p.everMatched.Store(true)
	}
	p.participant.metrics.setMatched(p.participant.domainID, p.topic, "writer", total)

	first := matched && total == 1
	last := !matched && total == 0
	if !first && !last {
		return
	}
	p.logger.Debug("Publisher match changed", logging.LogFields{"matched": matched})
	if p.onMatch != nil {
		p.onMatch(p, matched)
	}
}

// Publish encodes data as one sample and hands it to the middleware. Delivery
// guarantees are the transport's; there are no internal retries.
func (p *Publisher[T]) Publish(ctx context.Context, data T) error {
	if p.closed.Load() {
		return dderrors.ErrPublisherClosed
	}

	payload, err := p.codec.Marshal(data)
	if err != nil {
		p.participant.metrics.incPublishFailure(p.participant.domainID, p.topic)
		return fmt.Errorf("encoding sample for topic %q: %w", p.topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata = metadata.ToWatermill(sampleMetadata(p.guid,
		strconv.FormatUint(p.sequence.Add(1), 10), p.typeName))
	injectTraceContext(ctx, msg.Metadata)
	msg.SetContext(ctx)

	if err := p.participant.transport.Publisher.Publish(p.wireTopic, msg); err != nil {
		p.participant.metrics.incPublishFailure(p.participant.domainID, p.topic)
		return fmt.Errorf("publishing to topic %q: %w", p.topic, err)
	}
	p.participant.metrics.incPublished(p.participant.domainID, p.topic)
	return nil
}

// Topic returns the application-level topic name.
func (p *Publisher[T]) Topic() string { return p.topic }

// GUID returns the writer's unique identifier.
func (p *Publisher[T]) GUID() string { return p.guid }

// Reliability returns the writer's offered reliability QoS.
func (p *Publisher[T]) Reliability() ReliabilityKind { return p.reliability }

// MatchedSubscribers returns the number of currently matched readers.
func (p *Publisher[T]) MatchedSubscribers() int { return int(p.matched.Load()) }

// EverMatched reports whether this publisher has ever had a matched reader.
func (p *Publisher[T]) EverMatched() bool { return p.everMatched.Load() }

// Close tears the publisher down: unregister notification, endpoint dispose,
// topic binding release, participant reference release. Safe to call more
// than once; later calls are no-ops.
func (p *Publisher[T]) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.closed.Store(true)

		// Metadata-only sample with the valid flag unset: readers observe the
		// writer leaving without a data callback firing.
		unregister := message.NewMessage(watermill.NewUUID(), nil)
		unregister.Metadata.Set(sampleKeyWriterGUID, p.guid)
		unregister.Metadata.Set(sampleKeyTypeName, p.typeName)
		if pubErr := p.participant.transport.Publisher.Publish(p.wireTopic, unregister); pubErr != nil {
			p.logger.Debug("Unregister notification not delivered", logging.LogFields{
				"error": pubErr.Error(),
			})
		}

		p.participant.discovery.removeEndpoint(p.guid)
		p.participant.releaseType(p.topic)
		err = p.participant.release()
		p.logger.Debug("Publisher closed", nil)
	})
	return err
}
