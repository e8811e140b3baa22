package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-portal/internal/api/dto"
	httptransport "github.com/spec-kit/auth-portal/internal/api/http"
	"github.com/spec-kit/auth-portal/internal/api/http/handlers"
	"github.com/spec-kit/auth-portal/internal/auth"
	"github.com/spec-kit/auth-portal/internal/config"
	"github.com/spec-kit/auth-portal/internal/domain"
	"github.com/spec-kit/auth-portal/internal/observability"
	"github.com/spec-kit/auth-portal/internal/repository"
	"github.com/spec-kit/auth-portal/internal/service"
)

type apiFixture struct {
	app   *fiber.App
	users repository.UserRepository
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	svc := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}, users)

	app := fiber.New()
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, 0, nil)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("auth-api", "test", metrics, nil),
		Users:          handlers.NewUsersHandler(svc),
		AuthMiddleware: auth.NewAuthMiddleware(svc.TokenManager(), users),
	})
	return &apiFixture{app: app, users: users}
}

func (f *apiFixture) call(t *testing.T, method, path, body, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (f *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	status, data := f.call(t, http.MethodPost, "/api/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, status, string(data))
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp.Token
}

func TestRegisterAndLoginContract(t *testing.T) {
	f := newAPI(t)

	status, data := f.call(t, http.MethodPost, "/api/register", `{"email":"alice@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, status)
	var reg dto.RegisterResponse
	require.NoError(t, json.Unmarshal(data, &reg))
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, "customer", reg.User.Role)

	status, data = f.call(t, http.MethodPost, "/api/login", `{"email":"alice@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, status)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotEmpty(t, body["token"], "portal reads the token field")
}

func TestRegisterErrors(t *testing.T) {
	f := newAPI(t)

	status, data := f.call(t, http.MethodPost, "/api/register", `{"email":"alice@example.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), "VALIDATION_FAILED")

	status, _ = f.call(t, http.MethodPost, "/api/register", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, status)

	f.call(t, http.MethodPost, "/api/register", `{"email":"alice@example.com","password":"x"}`, "")
	status, data = f.call(t, http.MethodPost, "/api/register", `{"email":"alice@example.com","password":"y"}`, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(data), "Email already registered.")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAPI(t)
	f.call(t, http.MethodPost, "/api/register", `{"email":"alice@example.com","password":"secret"}`, "")

	status, data := f.call(t, http.MethodPost, "/api/login", `{"email":"alice@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(data), "Invalid Credentials.")
}

func TestProtectedAndLogout(t *testing.T) {
	f := newAPI(t)
	f.call(t, http.MethodPost, "/api/register", `{"email":"alice@example.com","password":"secret"}`, "")
	token := f.login(t, "alice@example.com", "secret")

	status, _ := f.call(t, http.MethodGet, "/api/protected", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodGet, "/api/protected", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, data := f.call(t, http.MethodGet, "/api/protected", "", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "You are logged in as alice@example.com")

	status, data = f.call(t, http.MethodPost, "/api/logout", "", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "Logout successful.")
}

func TestListUsersRequiresAdmin(t *testing.T) {
	f := newAPI(t)
	f.call(t, http.MethodPost, "/api/register", `{"email":"alice@example.com","password":"secret"}`, "")
	customer := f.login(t, "alice@example.com", "secret")

	status, _ := f.call(t, http.MethodGet, "/api/users", "", customer)
	assert.Equal(t, http.StatusForbidden, status)

	hash, err := auth.HashPassword("root", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), &domain.User{
		ID: "admin-1", Email: "admin@example.com", PasswordHash: hash, Role: domain.RoleAdmin,
	}))
	admin := f.login(t, "admin@example.com", "root")

	status, data := f.call(t, http.MethodGet, "/api/users", "", admin)
	require.Equal(t, http.StatusOK, status)
	var users []dto.UserResponse
	require.NoError(t, json.Unmarshal(data, &users))
	assert.Len(t, users, 2)
	assert.NotContains(t, string(data), "password")
}

func TestPanicIsRecovered(t *testing.T) {
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0, nil)
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
