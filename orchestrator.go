package sessionkit

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kyralabs/sessionkit/session"
)

// Orchestrator is the single source of truth for "am I signed in, as whom,
// past verification". It is an explicitly constructed component: build one
// at the application root through [Builder] and hand it to consumers; there
// are no package-level globals.
//
// The provider's identity-change push is the only writer of session state.
// Operations request changes from the provider and return; the resulting
// push (not the call's return value) moves the session. The one exception is
// UpdateProfile's optimistic local patch, which the next push reconciles.
type Orchestrator struct {
	config    Config
	provider  IdentityProvider
	phone     *PhoneChallengeFlow
	snapshots *session.Store
	audit     *auditDispatcher
	metrics   *Metrics

	mu          sync.RWMutex
	session     Session
	started     bool
	subscribers map[string]chan Session
	unsubscribe func()
	closed      bool
}

// Start restores a persisted snapshot (when persistence is enabled) and
// acquires the identity-change subscription. It must be called exactly once
// before any operation; the subscription is released by Close.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errors.New("orchestrator closed")
	}
	if o.unsubscribe != nil {
		o.mu.Unlock()
		return errors.New("orchestrator already started")
	}
	o.mu.Unlock()

	o.restoreSnapshot(ctx)

	cancel, err := o.provider.SubscribeIdentityChanges(o.handlePush)
	if err != nil {
		return mapProviderError(err)
	}

	o.mu.Lock()
	o.unsubscribe = cancel
	o.mu.Unlock()
	return nil
}

// Close releases the identity-change subscription and flushes the audit
// dispatcher. The orchestrator cannot be restarted.
func (o *Orchestrator) Close() {
	if o == nil {
		return
	}
	o.mu.Lock()
	cancel := o.unsubscribe
	o.unsubscribe = nil
	o.closed = true
	for _, ch := range o.subscribers {
		close(ch)
	}
	o.subscribers = map[string]chan Session{}
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if o.audit != nil {
		o.audit.Close()
	}
}

// CurrentSession returns a copy of the current session. The identity is
// cloned; callers may not mutate orchestrator state through it.
func (o *Orchestrator) CurrentSession() Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Session{
		Identity: o.session.Identity.clone(),
		Status:   o.session.Status,
	}
}

// Loading reports whether the first provider push (or snapshot restore) is
// still outstanding. Callers must gate rendering on this flag to avoid a
// flash of signed-out state.
func (o *Orchestrator) Loading() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return !o.started
}

// Subscribe registers a session observer. The current session is delivered
// immediately, then every subsequent transition. When a subscriber's buffer
// is full the oldest value is dropped so the latest session always lands
// (last push wins). The returned cancel releases the subscription; the
// channel is closed on cancel or orchestrator Close.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Session, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Session, buffer)
	id := uuid.NewString()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	o.subscribers[id] = ch
	deliver(ch, Session{Identity: o.session.Identity.clone(), Status: o.session.Status})
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			if _, ok := o.subscribers[id]; ok {
				delete(o.subscribers, id)
				close(ch)
			}
			o.mu.Unlock()
		})
	}
	return ch, cancel
}

// Phone returns the phone challenge sub-flow layered on this orchestrator.
func (o *Orchestrator) Phone() *PhoneChallengeFlow {
	return o.phone
}

// MetricsSnapshot returns a copy of all counters.
func (o *Orchestrator) MetricsSnapshot() MetricsSnapshot {
	if o == nil || o.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return o.metrics.Snapshot()
}

// AuditDropped reports audit events discarded by a full buffer.
func (o *Orchestrator) AuditDropped() uint64 {
	if o == nil || o.audit == nil {
		return 0
	}
	return o.audit.Dropped()
}

func (o *Orchestrator) metricInc(id MetricID) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.Inc(id)
}

// handlePush is the identity-change subscription callback and the sole
// writer of session identity and status.
func (o *Orchestrator) handlePush(identity *Identity) {
	next := Session{
		Identity: identity.clone(),
		Status:   deriveStatus(identity),
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.session = next
	// Fan-out happens under the lock so a concurrent cancel cannot close a
	// channel mid-send; deliver never blocks.
	for _, ch := range o.subscribers {
		deliver(ch, Session{Identity: next.Identity.clone(), Status: next.Status})
	}
	o.mu.Unlock()

	o.persistSnapshot(context.Background(), next.Identity)

	o.metricInc(MetricPushApplied)
	userID := ""
	method := MethodUnknown
	if next.Identity != nil {
		userID = next.Identity.ID
		method = next.Identity.Method
	}
	o.emitAudit(context.Background(), auditEventIdentityPush, true, userID, method, nil, func() map[string]string {
		return map[string]string{
			"status": next.Status.String(),
		}
	})
}

// deliver never blocks: a full buffer sheds its oldest value first.
func deliver(ch chan Session, s Session) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

func (o *Orchestrator) requireStarted() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.unsubscribe == nil {
		return ErrNotStarted
	}
	return nil
}

// currentIdentity returns a clone of the cached identity, or nil.
func (o *Orchestrator) currentIdentity() *Identity {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.session.Identity.clone()
}

// mapProviderError passes taxonomy and context errors through untouched and
// wraps anything else as a ProviderError so no failure is ever swallowed or
// collapsed into a generic one.
func mapProviderError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, known := range taxonomy {
		if errors.Is(err, known) {
			return err
		}
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Raw: err.Error()}
}
