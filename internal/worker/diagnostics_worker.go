package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-portal/internal/events"
	"github.com/spec-kit/auth-portal/internal/observability"
)

// StartDiagnosticsWorker subscribes the log and metrics sinks to submission events.
// This is where failed submissions become visible: the form itself shows nothing.
func StartDiagnosticsWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	if dispatcher == nil {
		return
	}
	logger = logger.Named("diagnostics")

	record := func(state string) events.EventHandler {
		return func(_ context.Context, e events.Event) error {
			p, ok := e.Payload.(events.SubmissionPayload)
			if !ok {
				return errors.New("diagnostics: unexpected payload")
			}
			metrics.RecordSubmission(p.Form, state)
			return nil
		}
	}

	dispatcher.Subscribe(events.EventSubmissionStarted, record("started"))
	dispatcher.Subscribe(events.EventSubmissionSucceeded, record("succeeded"))
	dispatcher.Subscribe(events.EventSubmissionFailed, record("failed"))
	dispatcher.Subscribe(events.EventSubmissionRejected, record("rejected"))

	dispatcher.Subscribe(events.EventSubmissionSucceeded, func(_ context.Context, e events.Event) error {
		p, _ := e.Payload.(events.SubmissionPayload)
		logger.Info("submission succeeded",
			zap.String("form", p.Form),
			zap.String("session", e.SessionID),
			zap.String("target", p.Target),
			zap.Int("status", p.Status),
		)
		return nil
	})
	dispatcher.Subscribe(events.EventSubmissionFailed, func(_ context.Context, e events.Event) error {
		p, _ := e.Payload.(events.SubmissionPayload)
		logger.Warn("submission failed",
			zap.String("form", p.Form),
			zap.String("endpoint", p.Endpoint),
			zap.String("session", e.SessionID),
			zap.Int("status", p.Status),
			zap.Error(p.Err),
		)
		return nil
	})
	dispatcher.Subscribe(events.EventSubmissionRejected, func(_ context.Context, e events.Event) error {
		p, _ := e.Payload.(events.SubmissionPayload)
		logger.Info("submission rejected while pending",
			zap.String("form", p.Form),
			zap.String("session", e.SessionID),
		)
		return nil
	})
	dispatcher.Subscribe(events.EventSessionCleared, func(_ context.Context, e events.Event) error {
		logger.Info("session token cleared", zap.String("session", e.SessionID))
		return nil
	})
}
