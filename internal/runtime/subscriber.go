package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	dderrors "github.com/drblury/ddsflow/internal/runtime/errors"
	"github.com/drblury/ddsflow/internal/runtime/ids"
	"github.com/drblury/ddsflow/internal/runtime/logging"
)

// SubscriberOption configures a Subscriber at construction time.
type SubscriberOption[T any] func(*subscriberOptions[T])

type subscriberOptions[T any] struct {
	reliability  *ReliabilityKind
	historyDepth *int
	onMatch      func(matched bool)
}

// WithReaderReliability overrides the reader reliability QoS for one
// subscriber. A Reliable reader only matches Reliable writers.
func WithReaderReliability[T any](kind ReliabilityKind) SubscriberOption[T] {
	return func(o *subscriberOptions[T]) { o.reliability = &kind }
}

// WithHistoryDepth overrides how many received samples may queue between the
// transport and the data callback.
func WithHistoryDepth[T any](depth int) SubscriberOption[T] {
	return func(o *subscriberOptions[T]) { o.historyDepth = &depth }
}

// WithSubscriberMatchFunc installs a callback fired when the subscriber gains
// its first matched writer (matched=true) and when it loses the last one
// (matched=false).
func WithSubscriberMatchFunc[T any](fn func(matched bool)) SubscriberOption[T] {
	return func(o *subscriberOptions[T]) { o.onMatch = fn }
}

// Subscriber receives typed samples of T from one topic of a domain
// participant and delivers them to a data callback, one sample per
// invocation, on a dedicated dispatch goroutine.
type Subscriber[T any] struct {
	participant  *Participant
	topic        string
	wireTopic    string
	guid         string
	typeName     string
	codec        Codec[T]
	reliability  ReliabilityKind
	historyDepth int
	logger       logging.ServiceLogger

	onData  func(T)
	onMatch func(matched bool)

	cancel context.CancelFunc
	done   chan struct{}

	matched     atomic.Int64
	everMatched atomic.Bool
	closeOnce   sync.Once
}

// NewSubscriber creates a subscriber for topic on the given participant.
// onData is invoked once per valid sample; it must not be nil. Construction
// failures unwind everything already acquired.
func NewSubscriber[T any](participant *Participant, topic string, onData func(T), opts ...SubscriberOption[T]) (*Subscriber[T], error) {
	if participant == nil {
		return nil, dderrors.ErrParticipantRequired
	}
	if topic == "" {
		return nil, dderrors.ErrTopicRequired
	}
	if onData == nil {
		return nil, dderrors.ErrDataCallbackRequired
	}

	var options subscriberOptions[T]
	for _, opt := range opts {
		opt(&options)
	}
	qos := QoSDefaultsFor[T]()
	reliability := qos.ReaderReliability
	if options.reliability != nil {
		reliability = *options.reliability
	}
	historyDepth := qos.HistoryDepth
	if options.historyDepth != nil && *options.historyDepth > 0 {
		historyDepth = *options.historyDepth
	}

	if err := participant.retain(); err != nil {
		return nil, err
	}
	typeName := typeNameOf[T]()
	if err := participant.registerType(topic, typeName); err != nil {
		_ = participant.release()
		return nil, err
	}

	s := &Subscriber[T]{
		participant:  participant,
		topic:        topic,
		wireTopic:    scopedTopic(participant.domainID, topic),
		guid:         ids.NewGUID(),
		typeName:     typeName,
		codec:        codecFor[T](),
		reliability:  reliability,
		historyDepth: historyDepth,
		onData:       onData,
		onMatch:      options.onMatch,
		done:         make(chan struct{}),
	}
	s.logger = participant.logger.With(logging.LogFields{
		"reader_guid": s.guid,
		"topic":       topic,
	})

	subCtx, cancel := context.WithCancel(participant.runCtx)
	msgs, err := participant.transport.Subscriber.Subscribe(subCtx, s.wireTopic)
	if err != nil {
		cancel()
		participant.releaseType(topic)
		_ = participant.release()
		return nil, fmt.Errorf("subscribing to topic %q: %w", topic, err)
	}
	s.cancel = cancel

	buffer := make(chan *message.Message, historyDepth)
	go s.receive(msgs, buffer)
	go s.dispatch(buffer)

	participant.discovery.addEndpoint(endpointAnnouncement{
		ParticipantGUID: participant.guid,
		EndpointGUID:    s.guid,
		Kind:            endpointReader,
		Topic:           topic,
		TypeName:        typeName,
		Reliability:     reliability,
	}, s.handleMatch)

	s.logger.Debug("Subscriber created", logging.LogFields{
		"reliability":   reliability.String(),
		"history_depth": historyDepth,
	})
	return s, nil
}

func (s *Subscriber[T]) handleMatch(matched bool, total int) {
	s.matched.Store(int64(total))
	if matched {
		s.everMatched.Store(true)
	}
	s.participant.metrics.setMatched(s.participant.domainID, s.topic, "reader", total)

	first := matched && total == 1
	last := !matched && total == 0
	if !first && !last {
		return
	}
	s.logger.Debug("Subscriber match changed", logging.LogFields{"matched": matched})
	if s.onMatch != nil {
		s.onMatch(matched)
	}
}

// receive pulls messages off the transport and queues them for dispatch. A
// Reliable reader backpressures the transport when the callback falls behind;
// a best-effort reader sheds the overflow instead.
func (s *Subscriber[T]) receive(msgs <-chan *message.Message, buffer chan<- *message.Message) {
	defer close(buffer)
	for msg := range msgs {
		if s.reliability == Reliable {
			buffer <- msg
			continue
		}
		select {
		case buffer <- msg:
		default:
			s.participant.metrics.incDropped(s.participant.domainID, s.topic, dropReasonHistoryFull)
			msg.Ack()
		}
	}
}

func (s *Subscriber[T]) dispatch(buffer <-chan *message.Message) {
	defer close(s.done)
	for msg := range buffer {
		s.deliver(msg)
		msg.Ack()
	}
}

func (s *Subscriber[T]) deliver(msg *message.Message) {
	md := msg.Metadata

	// Lifecycle notifications (writer unregister) carry no data.
	if md.Get(sampleKeyValidData) != sampleValidTrue {
		s.participant.metrics.incDropped(s.participant.domainID, s.topic, dropReasonLifecycle)
		return
	}
	if typeName := md.Get(sampleKeyTypeName); typeName != "" && typeName != s.typeName {
		s.participant.metrics.incDropped(s.participant.domainID, s.topic, dropReasonTypeMismatch)
		return
	}

	data, err := s.codec.Unmarshal(msg.Payload)
	if err != nil {
		s.logger.Error("Dropping undecodable sample", err, logging.LogFields{
			"writer_guid": md.Get(sampleKeyWriterGUID),
			"sequence":    md.Get(sampleKeySequence),
		})
		s.participant.metrics.incDropped(s.participant.domainID, s.topic, dropReasonDecodeError)
		return
	}

	_, span := startDeliverySpan(md, s.topic)
	s.onData(data)
	span.End()
	s.participant.metrics.incReceived(s.participant.domainID, s.topic)
}

// Topic returns the application-level topic name.
func (s *Subscriber[T]) Topic() string { return s.topic }

// GUID returns the reader's unique identifier.
func (s *Subscriber[T]) GUID() string { return s.guid }

// Reliability returns the reader's requested reliability QoS.
func (s *Subscriber[T]) Reliability() ReliabilityKind { return s.reliability }

// MatchedPublishers returns the number of currently matched writers.
func (s *Subscriber[T]) MatchedPublishers() int { return int(s.matched.Load()) }

// EverMatched reports whether this subscriber has ever had a matched writer.
func (s *Subscriber[T]) EverMatched() bool { return s.everMatched.Load() }

// Close tears the subscriber down: subscription cancel, dispatch drain,
// endpoint dispose, topic binding release, participant reference release.
// Safe to call more than once; later calls are no-ops.
func (s *Subscriber[T]) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done

		s.participant.discovery.removeEndpoint(s.guid)
		s.participant.releaseType(s.topic)
		err = s.participant.release()
		s.logger.Debug("Subscriber closed", nil)
	})
	return err
}
