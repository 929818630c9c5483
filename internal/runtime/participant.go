package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/drblury/ddsflow/internal/runtime/config"
	dderrors "github.com/drblury/ddsflow/internal/runtime/errors"
	"github.com/drblury/ddsflow/internal/runtime/ids"
	"github.com/drblury/ddsflow/internal/runtime/logging"
	"github.com/drblury/ddsflow/transport"
)

// scopedTopic maps an application topic onto the middleware namespace of one
// domain, so the same topic name in different domains never crosses over.
func scopedTopic(domainID int, topic string) string {
	return fmt.Sprintf("ddsflow_%d_%s", domainID, topic)
}

// discoveryTopic is the builtin topic carrying endpoint announcements for a
// domain.
func discoveryTopic(domainID int) string {
	return fmt.Sprintf("ddsflow_%d_discovery", domainID)
}

// Factory creates and caches domain participants. Requesting a domain that
// already has a live participant returns the shared instance with its
// reference count bumped; the participant shuts down when the last reference
// is released.
type Factory struct {
	mu           sync.Mutex
	participants map[int]*Participant
}

// DefaultFactory is the process-wide participant factory.
var DefaultFactory = &Factory{participants: map[int]*Participant{}}

// NewDomainParticipant returns the participant for domainID from the default
// factory, creating it on first use.
func NewDomainParticipant(ctx context.Context, domainID int, conf *config.Config, logger logging.ServiceLogger) (*Participant, error) {
	return DefaultFactory.CreateParticipant(ctx, domainID, conf, logger)
}

// CreateParticipant returns the live participant for domainID, or builds one.
// Config and logger only apply when a new participant is built; an existing
// participant keeps the settings it was created with.
func (f *Factory) CreateParticipant(ctx context.Context, domainID int, conf *config.Config, logger logging.ServiceLogger) (*Participant, error) {
	if domainID < 0 {
		return nil, dderrors.ErrInvalidDomainID
	}
	if conf == nil {
		return nil, dderrors.ErrConfigRequired
	}
	if logger == nil {
		return nil, dderrors.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.participants[domainID]; ok {
		// retain fails only when the last reference is racing us to shutdown;
		// build a fresh participant in that case.
		if err := existing.retain(); err == nil {
			return existing, nil
		}
	}

	p, err := newParticipant(ctx, domainID, *conf, logger, f)
	if err != nil {
		return nil, err
	}
	f.participants[domainID] = p
	return p, nil
}

func (f *Factory) remove(p *Participant) {
	f.mu.Lock()
	if f.participants[p.domainID] == p {
		delete(f.participants, p.domainID)
	}
	f.mu.Unlock()
}

// transportConfig hands the participant's config to transport builders,
// extended with the domain id the Config struct does not carry.
type transportConfig struct {
	*config.Config
	domainID int
}

func (t transportConfig) GetDomainID() int { return t.domainID }

type topicBinding struct {
	typeName string
	refs     int
}

// Participant owns the middleware connection and discovery state for one DDS
// domain. Publishers and subscribers hold a reference each; the participant
// stays alive until every endpoint and every creator handle has closed.
type Participant struct {
	guid     string
	domainID int
	conf     config.Config
	logger   logging.ServiceLogger

	factory   *Factory
	transport transport.Transport
	discovery *discoveryService
	metrics   *Metrics

	runCtx context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	refs   int
	closed bool

	topicsMu sync.Mutex
	topics   map[string]*topicBinding
}

func newParticipant(ctx context.Context, domainID int, conf config.Config, logger logging.ServiceLogger, factory *Factory) (*Participant, error) {
	conf = conf.WithDefaults()

	guid := ids.NewGUID()
	logger = logger.With(logging.LogFields{
		"participant_guid": guid,
		"domain_id":        domainID,
	})
	wmLogger := logging.NewWatermillAdapter(logger)

	var metrics *Metrics
	if conf.MetricsEnabled {
		m, err := sharedMetrics()
		if err != nil {
			logger.Error("Metrics registration failed, continuing without metrics", err, nil)
		} else {
			metrics = m
		}
	}

	// The participant's subscriptions and discovery loop are bound to ctx:
	// cancelling it tears the participant down from the outside.
	runCtx, cancel := context.WithCancel(ctx)

	tr, err := transport.Build(runCtx, transportConfig{Config: &conf, domainID: domainID}, wmLogger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("building %q transport: %w", conf.Transport, err)
	}

	p := &Participant{
		guid:      guid,
		domainID:  domainID,
		conf:      conf,
		logger:    logger,
		factory:   factory,
		transport: tr,
		metrics:   metrics,
		runCtx:    runCtx,
		cancel:    cancel,
		refs:      1,
		topics:    map[string]*topicBinding{},
	}

	p.discovery = newDiscoveryService(guid, discoveryTopic(domainID), tr.Publisher,
		logger, conf.DiscoveryAnnouncements, conf.DiscoveryInterval)
	if err := p.discovery.start(runCtx, tr.Subscriber); err != nil {
		cancel()
		_ = tr.Close()
		return nil, fmt.Errorf("starting discovery: %w", err)
	}

	logger.Info("Domain participant created", logging.LogFields{"transport": conf.Transport})
	return p, nil
}

// GUID returns the participant's unique identifier.
func (p *Participant) GUID() string { return p.guid }

// DomainID returns the DDS domain this participant belongs to.
func (p *Participant) DomainID() int { return p.domainID }

// Close releases the caller's reference. The participant shuts down when the
// last reference is gone; endpoints created from it hold their own references
// and keep it alive until they close.
func (p *Participant) Close() error {
	return p.release()
}

func (p *Participant) retain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return dderrors.ErrParticipantClosed
	}
	p.refs++
	return nil
}

func (p *Participant) release() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return dderrors.ErrParticipantClosed
	}
	p.refs--
	if p.refs > 0 {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.factory.remove(p)
	return p.shutdown()
}

func (p *Participant) shutdown() error {
	p.discovery.close()
	p.cancel()
	err := p.transport.Close()
	p.logger.Info("Domain participant closed", nil)
	return err
}

// registerType binds topic to typeName, enforcing that one topic never serves
// two different data types within the participant.
func (p *Participant) registerType(topic, typeName string) error {
	p.topicsMu.Lock()
	defer p.topicsMu.Unlock()

	if binding, ok := p.topics[topic]; ok {
		if binding.typeName != typeName {
			return fmt.Errorf("%w: topic %q carries %s, not %s",
				dderrors.ErrTypeMismatch, topic, binding.typeName, typeName)
		}
		binding.refs++
		return nil
	}
	p.topics[topic] = &topicBinding{typeName: typeName, refs: 1}
	return nil
}

func (p *Participant) releaseType(topic string) {
	p.topicsMu.Lock()
	defer p.topicsMu.Unlock()

	binding, ok := p.topics[topic]
	if !ok {
		return
	}
	binding.refs--
	if binding.refs <= 0 {
		delete(p.topics, topic)
	}
}
