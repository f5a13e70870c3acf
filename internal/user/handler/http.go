// Package handler exposes the user-management endpoints over HTTP. Every
// endpoint requires an authenticated identity; write endpoints additionally
// require admin per policy.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	auditdomain "auth-core/internal/audit/domain"
	"auth-core/internal/auth/service"
	"auth-core/internal/authz/engine"
	"auth-core/internal/platform/rbac"
	"auth-core/internal/server/middleware"
	"auth-core/internal/store"
	"auth-core/internal/user/domain"
)

// Service is the slice of the auth service used by these endpoints.
type Service interface {
	Register(ctx context.Context, p service.RegisterParams) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	SetPushToken(ctx context.Context, id, token string) error
}

// AuditReader lists recorded audit events for a user.
type AuditReader interface {
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

type Handler struct {
	svc    Service
	eval   engine.Evaluator
	audits AuditReader
	log    zerolog.Logger
}

func NewHandler(svc Service, eval engine.Evaluator, audits AuditReader, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, eval: eval, audits: audits, log: log}
}

type createUserRequest struct {
	Email     string `json:"email" binding:"required"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Password  string `json:"password" binding:"required"`
	PushToken string `json:"push_token"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type pushTokenRequest struct {
	PushToken string `json:"push_token" binding:"required"`
}

// Create handles POST /users.
func (h *Handler) Create(c *gin.Context) {
	if !h.allow(c, engine.ActionUserCreate, "") {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	user, err := h.svc.Register(c.Request.Context(), service.RegisterParams{
		Email:     req.Email,
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      domain.Role(req.Role),
		Status:    domain.UserStatus(req.Status),
		Password:  req.Password,
		PushToken: req.PushToken,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// List handles GET /users.
func (h *Handler) List(c *gin.Context) {
	if !h.allow(c, engine.ActionUserList, "") {
		return
	}
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /users/:id.
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if !h.allow(c, engine.ActionUserGet, id) {
		return
	}
	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateStatus handles PATCH /users/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if !h.allow(c, engine.ActionUserUpdateStatus, id) {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	user, err := h.svc.UpdateStatus(c.Request.Context(), id, domain.UserStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateRole handles PATCH /users/:id/role.
func (h *Handler) UpdateRole(c *gin.Context) {
	id := c.Param("id")
	if !h.allow(c, engine.ActionUserUpdateRole, id) {
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}
	user, err := h.svc.UpdateRole(c.Request.Context(), id, domain.Role(req.Role))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetPushToken handles PUT /users/me/push-token. The target is always the
// caller; no policy check beyond authentication.
func (h *Handler) SetPushToken(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
		return
	}
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "push_token is required"})
		return
	}
	if err := h.svc.SetPushToken(c.Request.Context(), id.UserID, req.PushToken); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAudit handles GET /users/:id/audit. Admin only.
func (h *Handler) ListAudit(c *gin.Context) {
	id := c.Param("id")
	if !h.allow(c, engine.ActionAuditList, id) {
		return
	}
	limit := parseQueryInt32(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := parseQueryInt32(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	events, err := h.audits.ListByUser(c.Request.Context(), id, limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if events == nil {
		events = []*auditdomain.AuditLog{}
	}
	c.JSON(http.StatusOK, events)
}

func parseQueryInt32(c *gin.Context, key string, def int32) int32 {
	val := c.Query(key)
	if val == "" {
		return def
	}
	iv, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return def
	}
	return int32(iv)
}

// allow runs the policy check and writes the error response on denial.
func (h *Handler) allow(c *gin.Context, action engine.Action, targetUserID string) bool {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
		return false
	}
	if err := rbac.Require(c.Request.Context(), h.eval, id, action, targetUserID); err != nil {
		if errors.Is(err, rbac.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return false
		}
		h.log.Error().Err(err).Str("action", string(action)).Msg("policy evaluation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return false
	}
	return true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, store.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		h.log.Error().Err(err).Msg("user operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
