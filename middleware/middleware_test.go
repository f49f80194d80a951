package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
)

const secret = "middleware-test-secret-01"

type revocations map[string]bool

func (r revocations) IsRevoked(_ context.Context, token string) (bool, error) {
	if r == nil {
		return false, errors.New("redis down")
	}
	return r[token], nil
}

type finder map[primitive.ObjectID]models.User

func (f finder) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

type brokenFinder struct{}

func (brokenFinder) FindByID(context.Context, primitive.ObjectID) (*models.User, error) {
	return nil, errors.New("server selection timeout")
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(false)
	return e
}

func serve(e *echo.Echo, method, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoami(c echo.Context) error {
	v, _ := ViewerFrom(c)
	return c.String(http.StatusOK, v.Role)
}

func TestJWTMiddleware(t *testing.T) {
	u := models.User{ID: primitive.NewObjectID(), Email: "m@example.com", Role: models.RoleManager, IsActive: true}
	users := finder{u.ID: u}
	token, expires, err := GenerateJWT(secret, u, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	revoked := revocations{}
	e := newEcho()
	e.GET("/me", whoami, JWTMiddleware(secret, revoked, users))
	e.GET("/admin", whoami, JWTMiddleware(secret, revoked, users), RequireAdmin())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", echo.HeaderAuthorization, "Bearer nope").Code)

	rec := serve(e, http.MethodGet, "/me", echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleManager, rec.Body.String())

	// websocket clients pass the token as a query parameter
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/me?token="+token).Code)

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", echo.HeaderAuthorization, "Bearer "+token).Code)

	// the live role wins over the role in the token
	promoted := u
	promoted.Role = models.RoleAdmin
	users[u.ID] = promoted
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", echo.HeaderAuthorization, "Bearer "+token).Code)

	revoked[token] = true
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", echo.HeaderAuthorization, "Bearer "+token).Code)
}

func TestJWTMiddlewareInactiveAndRedisDown(t *testing.T) {
	u := models.User{ID: primitive.NewObjectID(), Role: models.RoleMarkenbotschafter, IsActive: true}
	users := finder{u.ID: u}
	token, _, err := GenerateJWT(secret, u, time.Hour)
	require.NoError(t, err)

	e := newEcho()
	e.GET("/me", whoami, JWTMiddleware(secret, revocations(nil), users))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/me", echo.HeaderAuthorization, "Bearer "+token).Code)

	u.IsActive = false
	users[u.ID] = u
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", echo.HeaderAuthorization, "Bearer "+token).Code)

	delete(users, u.ID)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", echo.HeaderAuthorization, "Bearer "+token).Code)
}

func TestJWTMiddlewareUserStoreDown(t *testing.T) {
	u := models.User{ID: primitive.NewObjectID(), Role: models.RoleManager, IsActive: true}
	token, _, err := GenerateJWT(secret, u, time.Hour)
	require.NoError(t, err)

	e := newEcho()
	e.GET("/me", whoami, JWTMiddleware(secret, revocations{}, brokenFinder{}))
	rec := serve(e, http.MethodGet, "/me", echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load user")
}

func TestWebhookSecret(t *testing.T) {
	e := newEcho()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.POST("/hook", ok, WebhookSecret("s3cret"))
	e.POST("/open", ok, WebhookSecret(""))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/hook").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/hook", WebhookSecretHeader, "wrong").Code)
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/hook", WebhookSecretHeader, "s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/open", WebhookSecretHeader, "").Code)
}

func TestRateLimiterBlocksPerEndpoint(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }
	rl.SetEndpointLimit("/api/auth/login", EndpointLimit{Limit: rate.Every(time.Hour), Burst: 2})

	e := newEcho()
	e.Use(rl.RateLimit())
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.POST("/api/auth/login", ok)
	e.GET("/health", ok)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/api/auth/login").Code)
	}
	rec := serve(e, http.MethodPost, "/api/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// the whole address is blocked until the block expires
	rec = serve(e, http.MethodGet, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	now = now.Add(6 * time.Minute)
	rl.cleanup()
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/health").Code)
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	origins := ParseOrigins(" https://dash.example.com, ,https://admin.example.com")
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173", "https://dash.example.com", "https://admin.example.com"}, origins)

	e := newEcho()
	e.Use(CORS(origins), SecurityHeadersWithConfig(SecurityConfig{AllowedDomains: origins, HSTS: true}))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodGet, "/x", echo.HeaderOrigin, "https://dash.example.com")
	assert.Equal(t, "https://dash.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "connect-src 'self' http://localhost:3000")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serve(e, http.MethodGet, "/x", echo.HeaderOrigin, "https://evil.example.com")
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRequestID(t *testing.T) {
	e := newEcho()
	e.Use(RequestID(), RequestLogger())
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodGet, "/x")
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)

	rec = serve(e, http.MethodGet, "/x", echo.HeaderXRequestID, "abc")
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))
}
