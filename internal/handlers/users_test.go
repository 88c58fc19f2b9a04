package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userlookup/internal/models"
	"github.com/charlesng35/userlookup/internal/services"
)

type stubLookup struct {
	user   services.LookupResult[models.User]
	users  services.LookupResult[[]models.User]
	err    error
	lastID uint
	calls  int
}

func (s *stubLookup) GetByID(_ context.Context, id uint) (services.LookupResult[models.User], error) {
	s.calls++
	s.lastID = id
	return s.user, s.err
}

func (s *stubLookup) GetAll(context.Context) (services.LookupResult[[]models.User], error) {
	s.calls++
	return s.users, s.err
}

func serveUsers(t *testing.T, h *UserHandler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/user/:id", h.Get)
	r.GET("/users", h.List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestNewUserHandlerRequiresLookup(t *testing.T) {
	_, err := NewUserHandler(nil)
	require.Error(t, err)
}

func TestUserHandlerGet(t *testing.T) {
	stub := &stubLookup{user: services.LookupResult[models.User]{
		Source: services.SourceStore,
		Data:   models.User{ID: 7, Name: "User7", Email: "user7@example.com"},
	}}
	h, err := NewUserHandler(stub)
	require.NoError(t, err)

	rec, body := serveUsers(t, h, "/user/7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint(7), stub.lastID)
	require.Equal(t, "mysql_db", body["source"])
	require.Equal(t, map[string]any{"id": 7.0, "name": "User7", "email": "user7@example.com"}, body["data"])
	require.Contains(t, body, "latency_ms")
	require.NotContains(t, body, "error")
}

func TestUserHandlerList(t *testing.T) {
	stub := &stubLookup{users: services.LookupResult[[]models.User]{
		Source: services.SourceCache,
		Data:   []models.User{{ID: 1, Name: "User1", Email: "user1@example.com"}, {ID: 2, Name: "User2", Email: "user2@example.com"}},
	}}
	h, err := NewUserHandler(stub)
	require.NoError(t, err)

	rec, body := serveUsers(t, h, "/users")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "redis_cache", body["source"])
	require.Len(t, body["data"], 2)
}

func TestUserHandlerNotFound(t *testing.T) {
	stub := &stubLookup{err: services.ErrUserNotFound}
	h, err := NewUserHandler(stub)
	require.NoError(t, err)

	rec, body := serveUsers(t, h, "/user/999")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", body["error"])
	require.Contains(t, body, "latency_ms")
	require.NotContains(t, body, "data")
	require.NotContains(t, body, "source")
}

func TestUserHandlerLegacyNotFoundStatus(t *testing.T) {
	stub := &stubLookup{err: services.ErrNoUsers}
	h, err := NewUserHandler(stub, WithLegacyNotFoundStatus(true))
	require.NoError(t, err)

	rec, body := serveUsers(t, h, "/users")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "No users found", body["error"])
}

func TestUserHandlerInvalidID(t *testing.T) {
	for _, path := range []string{"/user/abc", "/user/0", "/user/-3", "/user/99999999999"} {
		stub := &stubLookup{}
		h, err := NewUserHandler(stub)
		require.NoError(t, err)

		rec, body := serveUsers(t, h, path)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.Equal(t, "Invalid user id", body["error"], path)
		require.Zero(t, stub.calls, path)
	}
}

func TestUserHandlerStoreUnavailable(t *testing.T) {
	stub := &stubLookup{err: services.ErrStoreUnavailable.WithInternal(errors.New("dial tcp"))}
	h, err := NewUserHandler(stub, WithLegacyNotFoundStatus(true))
	require.NoError(t, err)

	rec, body := serveUsers(t, h, "/user/1")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Service unavailable", body["error"])
}

func TestRequestContext(t *testing.T) {
	require.NotNil(t, requestContext(nil))

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Equal(t, context.Background(), requestContext(c))

	type ctxKey struct{}
	req := httptest.NewRequest(http.MethodGet, "/user/1", nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKey{}, "req-1"))
	c.Request = req
	require.Equal(t, "req-1", requestContext(c).Value(ctxKey{}))
}
