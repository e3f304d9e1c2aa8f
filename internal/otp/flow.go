// internal/otp/flow.go
//
// Passwordless sign-in state machine.
//
// Context
//   The flow has three states:
//
//     AwaitingEmail ──SubmitEmail──▶ AwaitingCode ──SubmitCode──▶ Authenticated
//          ▲  │ enrollment or              │  ▲ │ wrong code
//          └──┘ delivery failure           │  └─┘ (stays, generic error)
//                                          └─Resend (no state change)
//
//   Authenticated is terminal: later invalidation (logout, backend 401)
//   is the session store's and fetch proxy's business, not the flow's; the
//   user restarts at AwaitingEmail by visiting the login route.
//
//   The flow itself is stateless between requests; the current state lives
//   in which page the browser is on.  These methods return the resulting
//   state so handlers can assert transitions and tests can pin them down.
//
//------------------------------------------------------------------------------

package otp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yanizio/reset/internal/metrics"
	"github.com/yanizio/reset/internal/session"
)

// CodeLength is the number of single-character code inputs on the verify
// page (named otp-0 … otp-6).
const CodeLength = 7

// State identifies a position in the sign-in flow.
type State int

const (
	StateAwaitingEmail State = iota
	StateAwaitingCode
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAwaitingEmail:
		return "awaiting-email"
	case StateAwaitingCode:
		return "awaiting-code"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ErrNotEnrolled reports an email the backend does not recognize.  The
// flow stays at AwaitingEmail and the login page shows the error.
var ErrNotEnrolled = errors.New("correo no inscrito")

// ErrInvalidCode reports a rejected {email, code} pair.  The backend does
// not distinguish expired, wrong, or unknown-email causes.
var ErrInvalidCode = errors.New("invalid email code pair")

// Flow drives the state machine against the backend Service.
type Flow struct {
	svc *Service
}

// NewFlow wraps svc.
func NewFlow(svc *Service) *Flow { return &Flow{svc: svc} }

// SubmitEmail moves AwaitingEmail → AwaitingCode: it checks enrollment,
// then requests code generation and out-of-band delivery.  On any failure
// the returned state is AwaitingEmail and err is user-presentable.
func (f *Flow) SubmitEmail(ctx context.Context, email string) (State, error) {
	ok, err := f.svc.VerifyEmail(ctx, email)
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("delivery").Inc()
		return StateAwaitingEmail, fmt.Errorf("verify email: %w", err)
	}
	if !ok {
		metrics.AuthFailuresTotal.WithLabelValues("not_enrolled").Inc()
		return StateAwaitingEmail, ErrNotEnrolled
	}

	if err := f.svc.CreateVerificationCode(ctx, email); err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("delivery").Inc()
		return StateAwaitingEmail, fmt.Errorf("create verification code: %w", err)
	}
	return StateAwaitingCode, nil
}

// Resend re-invokes code generation from AwaitingCode without changing
// state.  No cool-down is enforced here; that is the backend's call.
func (f *Flow) Resend(ctx context.Context, email string) error {
	if err := f.svc.CreateVerificationCode(ctx, email); err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("delivery").Inc()
		return fmt.Errorf("resend verification code: %w", err)
	}
	return nil
}

// SubmitCode moves AwaitingCode → Authenticated by verifying the pair.
// On success the returned user is written into the session by the caller.
// On rejection the state stays AwaitingCode with ErrInvalidCode.
func (f *Flow) SubmitCode(ctx context.Context, email, code string) (session.User, State, error) {
	user, err := f.svc.VerifyCode(ctx, email, code)
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("invalid_code").Inc()
		return session.User{}, StateAwaitingCode, ErrInvalidCode
	}
	metrics.AuthLoginsTotal.Inc()
	return user, StateAuthenticated, nil
}

// AssembleCode concatenates the seven per-digit inputs (otp-0 … otp-6) in
// index order.  Beyond presence the digits are not validated locally;
// blanks and non-digits are deferred to backend rejection.
func AssembleCode(form url.Values) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteString(form.Get(fmt.Sprintf("otp-%d", i)))
	}
	return b.String()
}
