package runtime

import (
	"reflect"
	"sync"
)

// ReliabilityKind selects the delivery guarantee requested (readers) or
// offered (writers) by an endpoint.
type ReliabilityKind int

const (
	// BestEffort delivers samples without retransmission; samples may be lost.
	BestEffort ReliabilityKind = iota
	// Reliable retries until delivered, within the backend's ack window.
	Reliable
)

func (k ReliabilityKind) String() string {
	switch k {
	case BestEffort:
		return "best_effort"
	case Reliable:
		return "reliable"
	default:
		return "unknown"
	}
}

// QoSProfile holds the per-type QoS defaults applied when a publisher or
// subscriber is constructed without explicit overrides.
//
// The writer-reliable/reader-best-effort asymmetry is deliberate: a reliable
// writer is compatible with both reliable and best-effort readers, so the
// defaults never produce a QoS mismatch between two endpoints using them.
type QoSProfile struct {
	WriterReliability ReliabilityKind
	ReaderReliability ReliabilityKind

	// HistoryDepth hints how many samples an endpoint buffers between
	// middleware delivery and dispatch.
	HistoryDepth int
}

// DefaultQoS returns the profile applied to types with no registered override.
func DefaultQoS() QoSProfile {
	return QoSProfile{
		WriterReliability: Reliable,
		ReaderReliability: BestEffort,
		HistoryDepth:      10,
	}
}

var (
	qosDefaultsMu sync.RWMutex
	qosDefaults   = map[reflect.Type]QoSProfile{}
)

// RegisterQoSDefaults overrides the default QoS profile for data type T.
// Latency- or throughput-sensitive types opt into different defaults here
// without touching call sites; explicit per-construction options still win.
func RegisterQoSDefaults[T any](profile QoSProfile) {
	qosDefaultsMu.Lock()
	defer qosDefaultsMu.Unlock()
	qosDefaults[typeOf[T]()] = profile
}

// QoSDefaultsFor returns the QoS profile for data type T: the registered
// override if present, DefaultQoS otherwise. Lookup never fails.
func QoSDefaultsFor[T any]() QoSProfile {
	qosDefaultsMu.RLock()
	defer qosDefaultsMu.RUnlock()
	if profile, ok := qosDefaults[typeOf[T]()]; ok {
		return profile
	}
	return DefaultQoS()
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// reliabilityCompatible applies the DDS offered/requested rule: a reader
// requesting Reliable only matches writers offering Reliable; a best-effort
// reader matches anything.
func reliabilityCompatible(offered, requested ReliabilityKind) bool {
	return !(requested == Reliable && offered == BestEffort)
}
