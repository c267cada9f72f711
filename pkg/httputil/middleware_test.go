package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hostelhq/hostelhq-backend/internal/auth/jwt"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/config"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret: "test-secret",
		Issuer: "hostelhq-auth",
	})
}

func bearerToken(t *testing.T, manager *jwt.Manager, role string) string {
	t.Helper()
	token, err := manager.Generate(&jwt.UserInfo{
		ID:    "9f8e7d6c-5b4a-4c3d-8e2f-1a0b9c8d7e6f",
		Email: "user@test.hostelhq.io",
		Name:  "Test User",
		Role:  role,
	}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func protectedHandler(manager *jwt.Manager, capabilities ...string) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := actor.FromContext(r.Context())
		httputil.JSON(w, http.StatusOK, map[string]string{"actor_id": a.ID, "role": a.Role})
	})
	h = httputil.RequireCapability(capabilities...)(h)
	return httputil.Authenticate(manager)(h)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	manager := newTestManager()
	handler := protectedHandler(manager, "rooms.read")

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", bearerToken(t, manager, actor.RoleStudent))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "9f8e7d6c-5b4a-4c3d-8e2f-1a0b9c8d7e6f")
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	handler := protectedHandler(newTestManager(), "rooms.read")

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	handler := protectedHandler(newTestManager(), "rooms.read")

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	manager := newTestManager()
	handler := protectedHandler(manager, "rooms.read")

	token, err := manager.Generate(&jwt.UserInfo{ID: "x", Role: actor.RoleStaff}, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func TestRequireCapability_ForbiddenRole(t *testing.T) {
	manager := newTestManager()
	handler := protectedHandler(manager, "rooms.create")

	req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
	req.Header.Set("Authorization", bearerToken(t, manager, actor.RoleStudent))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireCapability_AnyOfSeveral(t *testing.T) {
	manager := newTestManager()
	handler := protectedHandler(manager, "fees.read", "fees.read.own")

	// Students hold fees.read.own, which is enough to reach the endpoint
	req := httptest.NewRequest(http.MethodGet, "/fees", nil)
	req.Header.Set("Authorization", bearerToken(t, manager, actor.RoleStudent))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	var seen string
	handler := httputil.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	// A supplied request ID is preserved
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
