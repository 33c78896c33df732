package sessionkit

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	MetricSignUpSuccess MetricID = iota
	MetricSignUpFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginUnverified
	MetricLogout
	MetricVerificationEmailRequest
	MetricPasswordResetRequest
	MetricFederatedSuccess
	MetricFederatedConflict
	MetricFederatedFailure
	MetricProfileUpdate
	MetricPushApplied
	MetricSessionRestored
	MetricPhoneChallengeIssued
	MetricPhoneChallengeSuperseded
	MetricPhoneChallengeFailed
	MetricPhoneConfirmSuccess
	MetricPhoneConfirmInvalid
	MetricPhoneConfirmFailed
	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps adjacent counters off the same cache line so hot
// increments do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters. When disabled all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}

// MetricIDCount is exported for metric exporters that enumerate all IDs.
const MetricIDCount = uint16(metricIDCount)
