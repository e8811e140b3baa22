// Package web serves the portal pages and runs form submissions.
package web

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-portal/internal/events"
	"github.com/spec-kit/auth-portal/internal/form"
	"github.com/spec-kit/auth-portal/internal/router"
	"github.com/spec-kit/auth-portal/internal/session"
	"github.com/spec-kit/auth-portal/internal/submit"
	apperrors "github.com/spec-kit/auth-portal/pkg/util"
)

// Handler renders routed pages and handles form posts.
type Handler struct {
	router     *router.Router
	renderer   *router.Renderer
	workflows  map[string]*submit.Workflow
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// HandlerDeps bundles Handler collaborators.
type HandlerDeps struct {
	Router     *router.Router
	Renderer   *router.Renderer
	Workflows  []*submit.Workflow
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewHandler constructs handler. Workflows are looked up by variant name.
func NewHandler(deps HandlerDeps) *Handler {
	workflows := make(map[string]*submit.Workflow, len(deps.Workflows))
	for _, wf := range deps.Workflows {
		workflows[wf.Variant().Name] = wf
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		router:     deps.Router,
		renderer:   deps.Renderer,
		workflows:  workflows,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Show handles GET for every routed path.
func (h *Handler) Show(c *fiber.Ctx) error {
	route, err := h.router.Navigate(c.Path())
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if route.External != "" {
		return c.Redirect(route.External, fiber.StatusFound)
	}

	view := router.View{Route: route, State: submit.StateIdle}
	if _, ok := route.Page.Variant(); ok {
		view.Form = form.NewCredentials()
	}
	if route.Page == router.PageDashboard {
		signedIn, err := h.signedIn(c)
		if err != nil {
			return err
		}
		view.SignedIn = signedIn
	}
	return h.render(c, fiber.StatusOK, view)
}

// Submit handles POST on form routes.
func (h *Handler) Submit(c *fiber.Ctx) error {
	route, err := h.router.Navigate(c.Path())
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	variant, ok := route.Page.Variant()
	if !ok {
		return c.SendStatus(fiber.StatusMethodNotAllowed)
	}
	wf, ok := h.workflows[variant.Name]
	if !ok {
		return apperrors.NewInternalError(errors.New("web: no workflow for " + variant.Name))
	}
	sess, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewInternalError(errors.New("web: session middleware not installed"))
	}

	fs := form.FromValues(func(field string) string { return c.FormValue(field) }, form.CredentialFields...)

	outcome, err := wf.Submit(c.UserContext(), sess, fs)
	switch {
	case errors.Is(err, submit.ErrSubmissionPending):
		return h.pending(c, route, variant, fs, outcome.State)
	case err != nil:
		return apperrors.NewInternalError(err)
	case outcome.Succeeded():
		return h.navigate(c, outcome.Target)
	default:
		// No banner: the failure went to the diagnostic channel and the form stays editable.
		return h.render(c, fiber.StatusOK, router.View{Route: route, Form: fs, State: outcome.State.Resting()})
	}
}

// pending answers a duplicate submit. When the earlier login already stored its
// token the duplicate follows it to the success target instead.
func (h *Handler) pending(c *fiber.Ctx, route router.Route, variant submit.Variant, fs form.State, state submit.State) error {
	if variant.StoresToken {
		signedIn, err := h.signedIn(c)
		if err != nil {
			return err
		}
		if signedIn {
			return h.navigate(c, variant.SuccessTarget)
		}
	}
	return h.render(c, fiber.StatusConflict, router.View{Route: route, Form: fs, State: state})
}

// Logout clears the session token and returns to the root form.
func (h *Handler) Logout(c *fiber.Ctx) error {
	sess, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewInternalError(errors.New("web: session middleware not installed"))
	}
	if err := sess.ClearToken(c.UserContext()); err != nil {
		return apperrors.NewInternalError(err)
	}
	if h.dispatcher != nil {
		_ = h.dispatcher.Publish(c.UserContext(), events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSessionCleared,
			SessionID: sess.ID(),
		})
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// navigate issues the client-side navigation for a settled submission.
func (h *Handler) navigate(c *fiber.Ctx, target string) error {
	route, err := h.router.Navigate(target)
	if err != nil {
		h.logger.Warn("navigation target not routed", zap.String("target", target))
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.Redirect(route.Path, fiber.StatusSeeOther)
}

func (h *Handler) signedIn(c *fiber.Ctx) (bool, error) {
	sess, ok := session.FromContext(c)
	if !ok {
		return false, nil
	}
	_, err := sess.Token(c.UserContext())
	if errors.Is(err, session.ErrNoToken) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	return true, nil
}

func (h *Handler) render(c *fiber.Ctx, status int, view router.View) error {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, view); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}
