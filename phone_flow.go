package sessionkit

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"
)

var (
	// E.164-shaped: leading +, then 2-15 digits not starting with zero.
	phoneNumberPattern = regexp.MustCompile(`^\+[1-9][0-9]{1,14}$`)
	confirmCodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// PhoneChallengeFlow is the two-phase phone sign-in sub-flow: issue a
// challenge, then confirm the delivered code. It owns the single outstanding
// [PendingPhoneChallenge] and the lifetime of the human-verification widget.
//
// The flow is Idle until BeginChallenge succeeds, ChallengeIssued until the
// challenge is consumed (confirmed, expired, or superseded), then Idle
// again. On confirmation the phone identity reaches the session through the
// provider's normal identity push, not through this component.
type PhoneChallengeFlow struct {
	orch    *Orchestrator
	factory WidgetFactory
	cfg     PhoneConfig

	// constructMu serializes widget construction so at most one build is in
	// flight; the widget is created once per anchor for the process lifetime
	// and never torn down mid-flow (tearing it down would invalidate any
	// outstanding challenge).
	constructMu sync.Mutex
	widget      ChallengeWidget

	mu      sync.Mutex
	pending *PendingPhoneChallenge
}

func newPhoneChallengeFlow(orch *Orchestrator, factory WidgetFactory, cfg PhoneConfig) *PhoneChallengeFlow {
	return &PhoneChallengeFlow{
		orch:    orch,
		factory: factory,
		cfg:     cfg,
	}
}

// BeginChallenge validates phoneNumber locally, obtains a human-verification
// proof, and requests an OTP challenge from the provider. A prior pending
// challenge is silently superseded; the provider-side resource it pointed at
// is dropped locally, not cancelled, and lives until natural expiry.
//
// The returned value is a copy of the stored challenge.
func (f *PhoneChallengeFlow) BeginChallenge(ctx context.Context, phoneNumber string) (PendingPhoneChallenge, error) {
	if !phoneNumberPattern.MatchString(phoneNumber) {
		f.orch.metricInc(MetricPhoneChallengeFailed)
		f.orch.emitAudit(ctx, auditEventPhoneChallengeFailed, false, "", MethodPhone, ErrInvalidPhoneFormat, nil)
		return PendingPhoneChallenge{}, ErrInvalidPhoneFormat
	}

	widget, err := f.widgetHandle()
	if err != nil {
		f.orch.metricInc(MetricPhoneChallengeFailed)
		f.orch.emitAudit(ctx, auditEventPhoneChallengeFailed, false, "", MethodPhone, err, nil)
		return PendingPhoneChallenge{}, err
	}

	proof, err := widget.Proof(ctx)
	if err != nil {
		mapped := mapWidgetError(err)
		f.orch.metricInc(MetricPhoneChallengeFailed)
		f.orch.emitAudit(ctx, auditEventPhoneChallengeFailed, false, "", MethodPhone, mapped, nil)
		return PendingPhoneChallenge{}, mapped
	}

	handle, err := f.orch.provider.IssuePhoneChallenge(ctx, phoneNumber, proof)
	if err != nil {
		mapped := mapChallengeIssueError(err)
		f.orch.metricInc(MetricPhoneChallengeFailed)
		f.orch.emitAudit(ctx, auditEventPhoneChallengeFailed, false, "", MethodPhone, mapped, func() map[string]string {
			return map[string]string{
				"phone": phoneNumber,
			}
		})
		return PendingPhoneChallenge{}, mapped
	}

	next := &PendingPhoneChallenge{
		PhoneNumber: phoneNumber,
		Handle:      handle,
		IssuedAt:    time.Now(),
	}

	f.mu.Lock()
	superseded := f.pending
	f.pending = next
	f.mu.Unlock()

	if superseded != nil {
		f.orch.metricInc(MetricPhoneChallengeSuperseded)
		f.orch.emitAudit(ctx, auditEventPhoneChallengeSuperseded, true, "", MethodPhone, nil, func() map[string]string {
			return map[string]string{
				"old_phone": superseded.PhoneNumber,
				"new_phone": phoneNumber,
			}
		})
	}

	f.orch.metricInc(MetricPhoneChallengeIssued)
	f.orch.emitAudit(ctx, auditEventPhoneChallengeIssued, true, "", MethodPhone, nil, func() map[string]string {
		return map[string]string{
			"phone": phoneNumber,
		}
	})
	return *next, nil
}

// ConfirmChallenge submits the delivered code against the pending
// challenge. The code is checked locally (exactly six digits) before any
// provider round-trip. On success the pending challenge is consumed and the
// phone identity becomes the session identity via the normal provider push.
//
// ErrInvalidCode leaves the pending challenge intact when the provider
// contract allows handle reuse (PhoneConfig.ReuseHandleOnInvalidCode);
// ErrChallengeExpired always consumes it, requiring a fresh BeginChallenge.
func (f *PhoneChallengeFlow) ConfirmChallenge(ctx context.Context, code string) error {
	if !confirmCodePattern.MatchString(code) {
		f.orch.metricInc(MetricPhoneConfirmFailed)
		f.orch.emitAudit(ctx, auditEventPhoneConfirmFailure, false, "", MethodPhone, ErrInvalidCodeFormat, nil)
		return ErrInvalidCodeFormat
	}

	f.mu.Lock()
	pending := f.pending
	f.mu.Unlock()
	if pending == nil {
		f.orch.metricInc(MetricPhoneConfirmFailed)
		f.orch.emitAudit(ctx, auditEventPhoneConfirmFailure, false, "", MethodPhone, ErrNoPendingChallenge, nil)
		return ErrNoPendingChallenge
	}

	identity, err := f.orch.provider.ConfirmPhoneChallenge(ctx, pending.Handle, code)
	if err != nil {
		mapped := mapProviderError(err)
		switch {
		case errors.Is(mapped, ErrInvalidCode):
			if !f.cfg.ReuseHandleOnInvalidCode {
				f.consume(pending)
			}
			f.orch.metricInc(MetricPhoneConfirmInvalid)
		case errors.Is(mapped, ErrChallengeExpired):
			f.consume(pending)
			f.orch.metricInc(MetricPhoneConfirmFailed)
		default:
			f.orch.metricInc(MetricPhoneConfirmFailed)
		}
		f.orch.emitAudit(ctx, auditEventPhoneConfirmFailure, false, "", MethodPhone, mapped, func() map[string]string {
			return map[string]string{
				"phone": pending.PhoneNumber,
			}
		})
		return mapped
	}

	f.consume(pending)
	f.orch.metricInc(MetricPhoneConfirmSuccess)
	userID := ""
	if identity != nil {
		userID = identity.ID
	}
	f.orch.emitAudit(ctx, auditEventPhoneConfirmSuccess, true, userID, MethodPhone, nil, func() map[string]string {
		return map[string]string{
			"phone": pending.PhoneNumber,
		}
	})
	return nil
}

// Reset discards the pending challenge, returning the flow to Idle. The
// provider-side challenge is not cancelled.
func (f *PhoneChallengeFlow) Reset() {
	f.mu.Lock()
	had := f.pending != nil
	f.pending = nil
	f.mu.Unlock()

	if had {
		f.orch.emitAudit(context.Background(), auditEventPhoneChallengeReset, true, "", MethodPhone, nil, nil)
	}
}

// Pending returns a copy of the outstanding challenge, or nil.
func (f *PhoneChallengeFlow) Pending() *PendingPhoneChallenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return nil
	}
	c := *f.pending
	return &c
}

// consume clears the pending challenge only if it is still the one the
// caller operated on; a concurrent BeginChallenge may have replaced it.
func (f *PhoneChallengeFlow) consume(p *PendingPhoneChallenge) {
	f.mu.Lock()
	if f.pending == p {
		f.pending = nil
	}
	f.mu.Unlock()
}

func (f *PhoneChallengeFlow) widgetHandle() (ChallengeWidget, error) {
	f.constructMu.Lock()
	defer f.constructMu.Unlock()
	if f.widget != nil {
		return f.widget, nil
	}
	if f.factory == nil {
		return nil, fmt.Errorf("%w: no widget factory configured", ErrChallengeDeliveryFailed)
	}
	widget, err := f.factory.CreateWidget(f.cfg.AnchorID, f.cfg.Widget)
	if err != nil {
		return nil, fmt.Errorf("%w: widget construction: %v", ErrChallengeDeliveryFailed, err)
	}
	f.widget = widget
	return widget, nil
}

func mapWidgetError(err error) error {
	if errors.Is(err, ErrWidgetExpired) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrChallengeDeliveryFailed, err)
}

func mapChallengeIssueError(err error) error {
	mapped := mapProviderError(err)
	switch {
	case errors.Is(mapped, ErrWidgetExpired),
		errors.Is(mapped, ErrInvalidPhoneFormat),
		errors.Is(mapped, ErrTooManyAttempts),
		errors.Is(mapped, ErrProviderUnavailable):
		return mapped
	case errors.Is(mapped, context.Canceled), errors.Is(mapped, context.DeadlineExceeded):
		return mapped
	}
	return fmt.Errorf("%w: %v", ErrChallengeDeliveryFailed, mapped)
}
