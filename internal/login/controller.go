package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/observability"
	"github.com/sandeepkv93/loginform/internal/validation"
)

const FailureMessage = "Login failed. Please try again."

var ErrSubmissionInFlight = errors.New("a login submission is already in flight")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseResolved:
		return "resolved"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Outcome string

const (
	OutcomeInvalid   Outcome = "invalid"
	OutcomeFailed    Outcome = "failed"
	OutcomeSucceeded Outcome = "succeeded"
)

// Status describes the most recent submission attempt only.
type Status struct {
	InFlight     bool
	ErrorMessage string
}

type Snapshot struct {
	Phase  Phase
	Status Status
}

// SuccessMessage is the notification text for a successful login.
func SuccessMessage(email string) string {
	return "Logged in as: " + email
}

type Controller struct {
	form     *form.State
	auth     Authenticator
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	busy atomic.Bool

	mu        sync.RWMutex
	phase     Phase
	status    Status
	observers []func(Snapshot)
}

type Option func(*Controller)

// WithRequestTimeout bounds each outbound call. Zero leaves the call unbounded.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewController(state *form.State, auth Authenticator, notifier Notifier, opts ...Option) *Controller {
	c := &Controller{
		form:     state,
		auth:     auth,
		notifier: notifier,
		logger:   observability.NewLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Form() *form.State { return c.form }

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Phase: c.phase, Status: c.status}
}

// OnStatus registers fn to run after every phase transition.
func (c *Controller) OnStatus(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Submit runs one attempt against the current form values: validate, post,
// then record the outcome. Validation and endpoint failures are reported
// through Status and the returned Outcome, not as errors. The only error is
// ErrSubmissionInFlight, returned when another attempt is still running.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return "", ErrSubmissionInFlight
	}
	defer c.busy.Store(false)

	ctx, span := observability.Tracer().Start(ctx, "login.submit")
	defer span.End()

	creds := c.form.Credentials()
	c.transition(PhaseValidating, nil)
	if err := validation.ValidatePassword(creds.Password); err != nil {
		reason := err.Error()
		var verr *validation.Error
		if errors.As(err, &verr) {
			reason = verr.Reason
			observability.RecordLoginValidationFailure(ctx, string(verr.Rule))
			span.SetAttributes(attribute.String("login.validation.rule", string(verr.Rule)))
		}
		c.transition(PhaseIdle, func(s *Status) {
			s.ErrorMessage = reason
			s.InFlight = false
		})
		c.finish(ctx, span, OutcomeInvalid, nil)
		return OutcomeInvalid, nil
	}

	c.transition(PhaseSubmitting, func(s *Status) {
		s.ErrorMessage = ""
		s.InFlight = true
	})
	defer c.transition(PhaseIdle, func(s *Status) { s.InFlight = false })

	start := c.now()
	err := c.callAuthenticator(ctx, creds)
	elapsed := c.now().Sub(start)

	if err != nil {
		observability.RecordLoginRequestDuration(ctx, string(OutcomeFailed), elapsed)
		c.transition(PhaseResolved, func(s *Status) { s.ErrorMessage = FailureMessage })
		c.finish(ctx, span, OutcomeFailed, err)
		return OutcomeFailed, nil
	}

	observability.RecordLoginRequestDuration(ctx, string(OutcomeSucceeded), elapsed)
	c.transition(PhaseResolved, nil)
	if c.notifier != nil {
		c.notifier.LoggedIn(ctx, creds.Email)
	}
	c.form.Reset()
	c.finish(ctx, span, OutcomeSucceeded, nil)
	return OutcomeSucceeded, nil
}

func (c *Controller) callAuthenticator(ctx context.Context, creds form.Credentials) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("login authenticator panic: %v", r)
		}
	}()
	return c.auth.Login(ctx, creds)
}

func (c *Controller) transition(phase Phase, mutate func(*Status)) {
	c.mu.Lock()
	c.phase = phase
	if mutate != nil {
		mutate(&c.status)
	}
	snap := Snapshot{Phase: c.phase, Status: c.status}
	observers := c.observers
	c.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func (c *Controller) finish(ctx context.Context, span trace.Span, outcome Outcome, cause error) {
	observability.RecordLoginSubmit(ctx, string(outcome))
	span.SetAttributes(attribute.String("login.outcome", string(outcome)))
	switch outcome {
	case OutcomeFailed:
		span.RecordError(cause)
		span.SetStatus(codes.Error, "login failed")
		c.logger.WarnContext(ctx, "login.submit", "outcome", outcome, "error", cause)
	case OutcomeInvalid:
		c.logger.InfoContext(ctx, "login.submit", "outcome", outcome, "reason", c.Snapshot().Status.ErrorMessage)
	default:
		c.logger.InfoContext(ctx, "login.submit", "outcome", outcome)
	}
}
