package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/ddsflow/internal/runtime/jsoncodec"
	"github.com/drblury/ddsflow/internal/runtime/logging"
)

type endpointKind string

const (
	endpointWriter endpointKind = "writer"
	endpointReader endpointKind = "reader"
)

// endpointAnnouncement is the discovery payload every endpoint publishes on
// the domain's builtin discovery topic. Disposed announcements retract an
// earlier one; reply announcements re-introduce existing endpoints to a late
// joiner and are never replied to themselves.
type endpointAnnouncement struct {
	ParticipantGUID string          `json:"participant_guid"`
	EndpointGUID    string          `json:"endpoint_guid"`
	Kind            endpointKind    `json:"kind"`
	Topic           string          `json:"topic"`
	TypeName        string          `json:"type_name"`
	Reliability     ReliabilityKind `json:"reliability"`
	Disposed        bool            `json:"disposed,omitempty"`
	Reply           bool            `json:"reply,omitempty"`
}

// matchFunc is invoked once per match transition with the new total of matched
// remote endpoints. Calls for one local endpoint are serialized.
type matchFunc func(matched bool, total int)

type matchEvent struct {
	matched bool
	total   int
}

type localEndpoint struct {
	announcement endpointAnnouncement
	onMatch      matchFunc
	matched      map[string]struct{}

	// pending holds match events awaiting delivery; notifying marks the one
	// goroutine currently draining them. Both are guarded by the service mutex
	// so events enqueued from any goroutine are delivered oldest first.
	pending   []matchEvent
	notifying bool
}

// discoveryService tracks which remote endpoints exist per topic and drives
// the match/unmatch callbacks of this participant's publishers and
// subscribers. All bookkeeping is keyed by endpoint GUID, so repeated
// announcements of the same endpoint are idempotent.
type discoveryService struct {
	participantGUID  string
	topic            string
	publisher        message.Publisher
	logger           logging.ServiceLogger
	announceCount    int
	announceInterval time.Duration

	mu      sync.Mutex
	locals  map[string]*localEndpoint
	remotes map[string]endpointAnnouncement

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
	bursts sync.WaitGroup

	closeOnce sync.Once
}

func newDiscoveryService(participantGUID, topic string, publisher message.Publisher,
	logger logging.ServiceLogger, announceCount int, announceInterval time.Duration) *discoveryService {
	return &discoveryService{
		participantGUID:  participantGUID,
		topic:            topic,
		publisher:        publisher,
		logger:           logger.With(logging.LogFields{"component": "discovery"}),
		announceCount:    announceCount,
		announceInterval: announceInterval,
		locals:           map[string]*localEndpoint{},
		remotes:          map[string]endpointAnnouncement{},
		runCtx:           context.Background(),
	}
}

// start subscribes to the discovery topic and begins processing announcements.
func (d *discoveryService) start(ctx context.Context, subscriber message.Subscriber) error {
	d.runCtx, d.cancel = context.WithCancel(ctx)

	msgs, err := subscriber.Subscribe(d.runCtx, d.topic)
	if err != nil {
		d.cancel()
		return err
	}

	d.done = make(chan struct{})
	go d.run(msgs)
	return nil
}

func (d *discoveryService) run(msgs <-chan *message.Message) {
	defer close(d.done)
	for msg := range msgs {
		d.handle(msg)
		msg.Ack()
	}
}

func (d *discoveryService) handle(msg *message.Message) {
	var a endpointAnnouncement
	if err := jsoncodec.Unmarshal(msg.Payload, &a); err != nil {
		d.logger.Error("Dropping malformed discovery announcement", err, logging.LogFields{
			"message_uuid": msg.UUID,
		})
		return
	}
	if a.EndpointGUID == "" {
		return
	}

	var drainers []*localEndpoint
	var replies []endpointAnnouncement

	d.mu.Lock()
	switch {
	case a.Disposed:
		delete(d.remotes, a.EndpointGUID)
		for _, l := range d.locals {
			if _, ok := l.matched[a.EndpointGUID]; !ok {
				continue
			}
			delete(l.matched, a.EndpointGUID)
			if d.queueMatchEvent(l, false, len(l.matched)) {
				drainers = append(drainers, l)
			}
		}

	default:
		if _, seen := d.remotes[a.EndpointGUID]; seen {
			break
		}
		d.remotes[a.EndpointGUID] = a
		for _, l := range d.locals {
			if !endpointsCompatible(l.announcement, a) {
				continue
			}
			l.matched[a.EndpointGUID] = struct{}{}
			if d.queueMatchEvent(l, true, len(l.matched)) {
				drainers = append(drainers, l)
			}
		}

		// Introduce our endpoints to a newly discovered peer, once. Replies
		// are excluded or the two participants would ping-pong forever.
		if !a.Reply && a.ParticipantGUID != d.participantGUID {
			for _, l := range d.locals {
				reply := l.announcement
				reply.Reply = true
				replies = append(replies, reply)
			}
		}
	}
	d.mu.Unlock()

	for _, l := range drainers {
		d.drainMatchEvents(l)
	}
	for _, reply := range replies {
		if err := d.publishAnnouncement(reply); err != nil {
			d.logger.Error("Failed to publish discovery reply", err, logging.LogFields{
				"endpoint_guid": reply.EndpointGUID,
			})
		}
	}
}

// addEndpoint registers a local endpoint, matches it against already known
// remotes, and starts its announcement burst.
func (d *discoveryService) addEndpoint(a endpointAnnouncement, onMatch matchFunc) {
	l := &localEndpoint{
		announcement: a,
		onMatch:      onMatch,
		matched:      map[string]struct{}{},
	}

	d.mu.Lock()
	d.locals[a.EndpointGUID] = l
	for guid, remote := range d.remotes {
		if endpointsCompatible(a, remote) {
			l.matched[guid] = struct{}{}
		}
	}
	drain := false
	for i := 1; i <= len(l.matched); i++ {
		if d.queueMatchEvent(l, true, i) {
			drain = true
		}
	}
	d.mu.Unlock()

	if drain {
		d.drainMatchEvents(l)
	}

	d.bursts.Add(1)
	go d.announceBurst(a)
}

// queueMatchEvent appends a match event for l and reports whether the caller
// has to drain l's queue. d.mu must be held.
func (d *discoveryService) queueMatchEvent(l *localEndpoint, matched bool, total int) (drain bool) {
	l.pending = append(l.pending, matchEvent{matched: matched, total: total})
	if l.notifying {
		return false
	}
	l.notifying = true
	return true
}

// drainMatchEvents delivers l's queued events in order. Only one goroutine
// drains an endpoint at a time and no lock is held across the callback, so
// the callback never overlaps itself and totals are applied oldest first.
func (d *discoveryService) drainMatchEvents(l *localEndpoint) {
	for {
		d.mu.Lock()
		if len(l.pending) == 0 {
			l.notifying = false
			d.mu.Unlock()
			return
		}
		ev := l.pending[0]
		l.pending = l.pending[1:]
		d.mu.Unlock()

		l.onMatch(ev.matched, ev.total)
	}
}

// removeEndpoint retracts a local endpoint. The disposed announcement loops
// back through the discovery topic and unmatches everyone, including this
// participant's own endpoints.
func (d *discoveryService) removeEndpoint(guid string) {
	d.mu.Lock()
	l, ok := d.locals[guid]
	delete(d.locals, guid)
	d.mu.Unlock()
	if !ok {
		return
	}

	dispose := l.announcement
	dispose.Disposed = true
	if err := d.publishAnnouncement(dispose); err != nil {
		d.logger.Error("Failed to publish dispose announcement", err, logging.LogFields{
			"endpoint_guid": guid,
		})
	}
}

func (d *discoveryService) announceBurst(a endpointAnnouncement) {
	defer d.bursts.Done()
	for i := 0; i < d.announceCount; i++ {
		if err := d.publishAnnouncement(a); err != nil {
			d.logger.Error("Failed to publish discovery announcement", err, logging.LogFields{
				"endpoint_guid": a.EndpointGUID,
				"topic":         a.Topic,
			})
			return
		}
		if i == d.announceCount-1 {
			return
		}
		select {
		case <-d.runCtx.Done():
			return
		case <-time.After(d.announceInterval):
		}
	}
}

func (d *discoveryService) publishAnnouncement(a endpointAnnouncement) error {
	payload, err := jsoncodec.Marshal(a)
	if err != nil {
		return err
	}
	return d.publisher.Publish(d.topic, message.NewMessage(watermill.NewUUID(), payload))
}

// close stops processing. Endpoints are expected to have been removed already
// as part of the participant's teardown order.
func (d *discoveryService) close() {
	d.closeOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		d.bursts.Wait()
		if d.done != nil {
			<-d.done
		}
	})
}

// endpointsCompatible decides whether a writer/reader pair matches: opposite
// kinds, same topic, same type name, and reliability compatible under the
// offered/requested rule.
func endpointsCompatible(a, b endpointAnnouncement) bool {
	if a.Kind == b.Kind || a.Topic != b.Topic || a.TypeName != b.TypeName {
		return false
	}
	writer, reader := a, b
	if a.Kind == endpointReader {
		writer, reader = b, a
	}
	return reliabilityCompatible(writer.Reliability, reader.Reliability)
}
