// Package submit runs the form-submission-and-navigation workflow shared by the
// login and registration forms.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-portal/internal/apiclient"
	"github.com/spec-kit/auth-portal/internal/events"
	"github.com/spec-kit/auth-portal/internal/form"
	"github.com/spec-kit/auth-portal/internal/session"
)

const defaultLockTTL = time.Minute

var (
	// ErrSubmissionPending rejects a submit while the same form in the same session is in flight.
	ErrSubmissionPending = errors.New("submit: submission already pending")
	// ErrMissingToken marks a 2xx login reply without a usable token.
	ErrMissingToken = errors.New("submit: response carried no token")
)

// Poster sends one JSON request to the backend.
type Poster interface {
	PostJSON(ctx context.Context, endpoint string, body any) (*apiclient.Response, error)
}

// Outcome is the resolved result of one submission attempt.
type Outcome struct {
	State State
	// Target is the route to navigate to. It is set only when State is StateSucceeded.
	Target string
	Token  string
	Err    error
}

// Succeeded reports whether navigation should happen.
func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// Workflow performs exactly one backend round trip per Submit.
type Workflow struct {
	variant    Variant
	api        Poster
	dispatcher events.Dispatcher
	lockTTL    time.Duration
	now        func() time.Time
}

// Option customizes a Workflow.
type Option func(*Workflow)

// WithDispatcher publishes submission events to d.
func WithDispatcher(d events.Dispatcher) Option {
	return func(w *Workflow) { w.dispatcher = d }
}

// WithLockTTL bounds how long a crashed attempt can block re-entry.
func WithLockTTL(ttl time.Duration) Option {
	return func(w *Workflow) {
		if ttl > 0 {
			w.lockTTL = ttl
		}
	}
}

// New builds a workflow for variant.
func New(variant Variant, api Poster, opts ...Option) *Workflow {
	w := &Workflow{
		variant: variant,
		api:     api,
		lockTTL: defaultLockTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Variant returns the form flavor this workflow serves.
func (w *Workflow) Variant() Variant {
	return w.variant
}

// Submit posts the form to the backend and resolves the attempt.
//
// Backend failures are not returned as errors: they produce a Failed outcome, are
// published on the diagnostic channel and leave fs untouched. A non-nil error means
// the attempt was rejected (ErrSubmissionPending) or the session store failed.
// On login the token is stored before the outcome carrying the target is returned.
func (w *Workflow) Submit(ctx context.Context, sess *session.Context, fs form.State) (Outcome, error) {
	lock := w.variant.lockName()
	owner, acquired, err := sess.TryLock(ctx, lock, w.lockTTL)
	if err != nil {
		return Outcome{State: StateFailed, Err: err}, fmt.Errorf("submit %s: %w", w.variant.Name, err)
	}
	if !acquired {
		w.publish(ctx, sess, events.EventSubmissionRejected, events.SubmissionPayload{Err: ErrSubmissionPending})
		return Outcome{State: StatePending}, ErrSubmissionPending
	}
	defer func() {
		_ = sess.Unlock(context.WithoutCancel(ctx), lock, owner)
	}()

	w.publish(ctx, sess, events.EventSubmissionStarted, events.SubmissionPayload{})

	resp, err := w.api.PostJSON(ctx, w.variant.Endpoint, fs.Values())
	if err != nil {
		return w.fail(ctx, sess, err), nil
	}

	outcome := Outcome{State: StateSucceeded, Target: w.variant.SuccessTarget}
	if w.variant.StoresToken {
		var body struct {
			Token string `json:"token"`
		}
		if err := resp.Decode(&body); err != nil || body.Token == "" {
			return w.fail(ctx, sess, errors.Join(ErrMissingToken, err)), nil
		}
		if err := sess.StoreToken(ctx, body.Token); err != nil {
			failed := w.fail(ctx, sess, err)
			return failed, fmt.Errorf("submit %s: %w", w.variant.Name, err)
		}
		outcome.Token = body.Token
	}

	w.publish(ctx, sess, events.EventSubmissionSucceeded, events.SubmissionPayload{
		Target: outcome.Target,
		Status: resp.StatusCode,
	})
	return outcome, nil
}

func (w *Workflow) fail(ctx context.Context, sess *session.Context, cause error) Outcome {
	payload := events.SubmissionPayload{Err: cause}
	var statusErr *apiclient.StatusError
	if errors.As(cause, &statusErr) {
		payload.Status = statusErr.StatusCode
	}
	w.publish(ctx, sess, events.EventSubmissionFailed, payload)
	return Outcome{State: StateFailed, Err: cause}
}

func (w *Workflow) publish(ctx context.Context, sess *session.Context, t events.EventType, payload events.SubmissionPayload) {
	if w.dispatcher == nil {
		return
	}
	payload.Form = w.variant.Name
	payload.Endpoint = w.variant.Endpoint
	_ = w.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      t,
		SessionID: sess.ID(),
		Timestamp: w.now(),
		Payload:   payload,
	})
}
