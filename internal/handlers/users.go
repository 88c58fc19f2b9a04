package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/userlookup/internal/models"
	"github.com/charlesng35/userlookup/internal/services"
	"github.com/charlesng35/userlookup/pkg/logger"
	"github.com/charlesng35/userlookup/pkg/response"
)

// UserLookup is the read side of the cache-aside accessor.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (services.LookupResult[models.User], error)
	GetAll(ctx context.Context) (services.LookupResult[[]models.User], error)
}

// UserHandler serves the user read endpoints.
type UserHandler struct {
	lookup         UserLookup
	legacyNotFound bool
}

// UserHandlerOption customises a UserHandler.
type UserHandlerOption func(*UserHandler)

// WithLegacyNotFoundStatus answers misses with 200 instead of 404.
func WithLegacyNotFoundStatus(enabled bool) UserHandlerOption {
	return func(h *UserHandler) {
		h.legacyNotFound = enabled
	}
}

func NewUserHandler(lookup UserLookup, opts ...UserHandlerOption) (*UserHandler, error) {
	if lookup == nil {
		return nil, errors.New("user handler: lookup service is required")
	}
	h := &UserHandler{lookup: lookup}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// GET /user/:id
func (h *UserHandler) Get(c *gin.Context) {
	start := time.Now()

	id, ok := parseUserID(c.Param("id"))
	if !ok {
		response.Error(c, services.ErrInvalidUserID, start)
		return
	}

	result, err := h.lookup.GetByID(requestContext(c), id)
	if err != nil {
		h.fail(c, err, start)
		return
	}
	response.Success(c, http.StatusOK, result.Source, result.Data, start)
}

// GET /users
func (h *UserHandler) List(c *gin.Context) {
	start := time.Now()

	result, err := h.lookup.GetAll(requestContext(c))
	if err != nil {
		h.fail(c, err, start)
		return
	}
	response.Success(c, http.StatusOK, result.Source, result.Data, start)
}

func (h *UserHandler) fail(c *gin.Context, err error, start time.Time) {
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrNoUsers):
		status := 0
		if h.legacyNotFound {
			status = http.StatusOK
		}
		response.ErrorWithStatus(c, status, err, start)
	default:
		logger.WithModule("handlers").Error("user lookup failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.Error(c, err, start)
	}
}

// requestContext ties store and cache calls to the client connection.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

func parseUserID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
