package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-portal/internal/api/http/handlers"
	httptransport "github.com/spec-kit/auth-portal/internal/api/http"
	"github.com/spec-kit/auth-portal/internal/apiclient"
	"github.com/spec-kit/auth-portal/internal/events"
	"github.com/spec-kit/auth-portal/internal/observability"
	"github.com/spec-kit/auth-portal/internal/router"
	"github.com/spec-kit/auth-portal/internal/session"
	"github.com/spec-kit/auth-portal/internal/submit"
	"github.com/spec-kit/auth-portal/internal/web"
	"github.com/spec-kit/auth-portal/internal/worker"
)

const (
	cookieName = "portal_session"
	sessionID  = "0b8f3c0e-5f64-4d8e-a3f3-0c6a3e9d2b11"
)

type portal struct {
	app     *fiber.App
	store   *session.MemoryStore
	metrics *observability.Metrics
}

type backendReply struct {
	status int
	body   string
}

func newPortal(t *testing.T, replies map[string]backendReply, dashboardURL string) *portal {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply, ok := replies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		_, _ = w.Write([]byte(reply.body))
	}))
	t.Cleanup(ts.Close)

	client, err := apiclient.New(ts.URL, ts.Client(), 0)
	require.NoError(t, err)
	renderer, err := router.NewRenderer()
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartDiagnosticsWorker(dispatcher, logger, metrics)
	store := session.NewMemoryStore(time.Hour)

	pages := web.NewHandler(web.HandlerDeps{
		Router:   router.Default(router.PageRegistration, dashboardURL),
		Renderer: renderer,
		Workflows: []*submit.Workflow{
			submit.New(submit.Login, client, submit.WithDispatcher(dispatcher)),
			submit.New(submit.Registration, client, submit.WithDispatcher(dispatcher)),
		},
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0, httptransport.TextErrorRenderer)
	web.RegisterRoutes(app, web.RouteConfig{
		Health:  handlers.NewHealthHandler("auth-portal", "test", metrics, nil),
		Pages:   pages,
		Session: session.NewMiddleware(store, session.CookieConfig{Name: cookieName, MaxAge: time.Hour}),
	})
	return &portal{app: app, store: store, metrics: metrics}
}

func (p *portal) do(t *testing.T, method, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})

	resp, err := p.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(data)
}

func credentials() url.Values {
	return url.Values{"email": {"alice@example.com"}, "password": {"secret"}}
}

func (p *portal) token(t *testing.T) (string, error) {
	t.Helper()
	return p.store.Token(context.Background(), sessionID)
}

func TestShowForms(t *testing.T) {
	p := newPortal(t, nil, "")

	resp, body := p.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<h2>Register</h2>")
	assert.Contains(t, body, `action="/"`)

	resp, body = p.do(t, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h2>Login</h2>")
}

func TestLoginSuccessNavigatesToDashboard(t *testing.T) {
	p := newPortal(t, map[string]backendReply{
		apiclient.LoginPath: {status: http.StatusOK, body: `{"token":"abc123"}`},
	}, "")

	resp, _ := p.do(t, http.MethodPost, "/login", credentials())
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	token, err := p.token(t)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	resp, body := p.do(t, http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "You are signed in.")
	assert.Equal(t, int64(1), p.metrics.Snapshot().Submissions["login|succeeded"])
}

func TestRegistrationSuccessNavigatesToSuccessPage(t *testing.T) {
	p := newPortal(t, map[string]backendReply{
		apiclient.RegisterPath: {status: http.StatusCreated, body: `{"message":"User registered successfully."}`},
	}, "")

	resp, _ := p.do(t, http.MethodPost, "/", credentials())
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/success", resp.Header.Get("Location"))

	_, err := p.token(t)
	assert.ErrorIs(t, err, session.ErrNoToken)

	resp, body := p.do(t, http.MethodGet, "/success", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Thank you for registering!")
}

func TestFailedSubmitRerendersFormWithValues(t *testing.T) {
	for _, path := range []string{"/login", "/register"} {
		t.Run(path, func(t *testing.T) {
			p := newPortal(t, map[string]backendReply{
				apiclient.LoginPath:    {status: http.StatusUnauthorized, body: `{"error":"Invalid Credentials."}`},
				apiclient.RegisterPath: {status: http.StatusUnauthorized},
			}, "")

			resp, body := p.do(t, http.MethodPost, path, credentials())
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Empty(t, resp.Header.Get("Location"))
			assert.Contains(t, body, `value="alice@example.com"`)
			assert.Contains(t, body, `value="secret"`)
			assert.NotContains(t, body, "disabled")
			assert.NotContains(t, body, "Invalid Credentials")

			_, err := p.token(t)
			assert.ErrorIs(t, err, session.ErrNoToken)
		})
	}
}

func TestBackendDownRerendersForm(t *testing.T) {
	renderer, err := router.NewRenderer()
	require.NoError(t, err)
	client, err := apiclient.New("http://127.0.0.1:1", nil, time.Second)
	require.NoError(t, err)

	store := session.NewMemoryStore(time.Hour)
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0, httptransport.TextErrorRenderer)
	web.RegisterRoutes(app, web.RouteConfig{
		Health: handlers.NewHealthHandler("auth-portal", "test", nil, nil),
		Pages: web.NewHandler(web.HandlerDeps{
			Router:    router.Default(router.PageLogin, ""),
			Renderer:  renderer,
			Workflows: []*submit.Workflow{submit.New(submit.Login, client)},
		}),
		Session: session.NewMiddleware(store, session.CookieConfig{Name: cookieName}),
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(credentials().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
}

func TestPendingSubmitIsRejected(t *testing.T) {
	p := newPortal(t, map[string]backendReply{
		apiclient.LoginPath: {status: http.StatusOK, body: `{"token":"abc123"}`},
	}, "")

	_, ok, err := p.store.TryLock(context.Background(), sessionID, "submit:login", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	resp, body := p.do(t, http.MethodPost, "/login", credentials())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "disabled")
	assert.Contains(t, body, `value="alice@example.com"`)
	assert.Contains(t, body, `<a href="/login">`)

	_, err = p.token(t)
	assert.ErrorIs(t, err, session.ErrNoToken)
}

func TestPendingLoginFollowsStoredToken(t *testing.T) {
	p := newPortal(t, map[string]backendReply{
		apiclient.LoginPath: {status: http.StatusOK, body: `{"token":"abc123"}`},
	}, "")

	ctx := context.Background()
	_, ok, err := p.store.TryLock(ctx, sessionID, "submit:login", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, p.store.SetToken(ctx, sessionID, "first-attempt"))

	resp, _ := p.do(t, http.MethodPost, "/login", credentials())
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	token, err := p.token(t)
	require.NoError(t, err)
	assert.Equal(t, "first-attempt", token, "the duplicate never reached the backend")
}

func TestUnmappedPathRendersNothing(t *testing.T) {
	p := newPortal(t, nil, "")

	for _, path := range []string{"/nope", "/login/", "/Success"} {
		resp, body := p.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.NotContains(t, body, "<form", path)
	}
}

func TestPostToNonFormPage(t *testing.T) {
	p := newPortal(t, nil, "")

	resp, _ := p.do(t, http.MethodPost, "/success", credentials())
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLogoutClearsToken(t *testing.T) {
	p := newPortal(t, nil, "")
	require.NoError(t, p.store.SetToken(context.Background(), sessionID, "abc123"))

	resp, _ := p.do(t, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, err := p.token(t)
	assert.ErrorIs(t, err, session.ErrNoToken)

	_, body := p.do(t, http.MethodGet, "/dashboard", nil)
	assert.Contains(t, body, "You are not signed in.")
}

func TestExternalDashboardRedirects(t *testing.T) {
	p := newPortal(t, nil, "https://app.example.com/home")

	resp, _ := p.do(t, http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://app.example.com/home", resp.Header.Get("Location"))
}

func TestHealthEndpoints(t *testing.T) {
	p := newPortal(t, nil, "")

	resp, body := p.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"alive"`)

	resp, body = p.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"ready"`)

	p.do(t, http.MethodGet, "/login", nil)
	resp, body = p.do(t, http.MethodGet, "/health/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "requests")
}
