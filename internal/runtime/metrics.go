package runtime

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks sample and match statistics for all participants in the
// process. Collectors are created once and shared; the domain label keeps
// participants apart. A nil *Metrics is a valid no-op receiver, used when
// Config.MetricsEnabled is false.
type Metrics struct {
	samplesPublished *prometheus.CounterVec
	publishFailures  *prometheus.CounterVec
	samplesReceived  *prometheus.CounterVec
	samplesDropped   *prometheus.CounterVec
	matchedEndpoints *prometheus.GaugeVec
}

var (
	sharedMetricsOnce sync.Once
	sharedMetricsInst *Metrics
	sharedMetricsErr  error
)

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ddsflow",
			Subsystem: "pubsub",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// sharedMetrics returns the process-wide collectors, registering them with the
// default registerer on first use.
func sharedMetrics() (*Metrics, error) {
	sharedMetricsOnce.Do(func() {
		m := &Metrics{
			samplesPublished: newCounterVec("samples_published_total",
				"Samples handed to the middleware publisher.", []string{"domain", "topic"}),
			publishFailures: newCounterVec("publish_failures_total",
				"Publish calls rejected by the middleware.", []string{"domain", "topic"}),
			samplesReceived: newCounterVec("samples_received_total",
				"Valid samples dispatched to data callbacks.", []string{"domain", "topic"}),
			samplesDropped: newCounterVec("samples_dropped_total",
				"Samples dropped before dispatch, by reason.", []string{"domain", "topic", "reason"}),
			matchedEndpoints: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "ddsflow",
					Subsystem: "pubsub",
					Name:      "matched_endpoints",
					Help:      "Remote endpoints currently matched, per local endpoint kind.",
				},
				[]string{"domain", "topic", "kind"},
			),
		}

		for _, collector := range []prometheus.Collector{
			m.samplesPublished, m.publishFailures, m.samplesReceived, m.samplesDropped, m.matchedEndpoints,
		} {
			if err := prometheus.Register(collector); err != nil {
				sharedMetricsErr = err
				return
			}
		}
		sharedMetricsInst = m
	})
	return sharedMetricsInst, sharedMetricsErr
}

func (m *Metrics) incPublished(domain int, topic string) {
	if m == nil {
		return
	}
	m.samplesPublished.WithLabelValues(strconv.Itoa(domain), topic).Inc()
}

func (m *Metrics) incPublishFailure(domain int, topic string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(strconv.Itoa(domain), topic).Inc()
}

func (m *Metrics) incReceived(domain int, topic string) {
	if m == nil {
		return
	}
	m.samplesReceived.WithLabelValues(strconv.Itoa(domain), topic).Inc()
}

func (m *Metrics) incDropped(domain int, topic, reason string) {
	if m == nil {
		return
	}
	m.samplesDropped.WithLabelValues(strconv.Itoa(domain), topic, reason).Inc()
}

func (m *Metrics) setMatched(domain int, topic, kind string, count int) {
	if m == nil {
		return
	}
	m.matchedEndpoints.WithLabelValues(strconv.Itoa(domain), topic, kind).Set(float64(count))
}

// Drop reasons for samples_dropped_total.
const (
	dropReasonLifecycle    = "lifecycle"
	dropReasonTypeMismatch = "type_mismatch"
	dropReasonDecodeError  = "decode_error"
	dropReasonHistoryFull  = "history_full"
)
