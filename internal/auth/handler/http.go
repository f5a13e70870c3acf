// Package handler exposes the authentication endpoints over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"auth-core/internal/auth/service"
	"auth-core/internal/metrics"
	"auth-core/internal/ratelimit"
	"auth-core/internal/store"
)

// Service is the slice of the auth service used by these endpoints.
type Service interface {
	Login(ctx context.Context, email, password string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Handler serves login, refresh, and logout. The limiter throttles login
// attempts per client IP; a nil limiter disables throttling.
type Handler struct {
	svc     Service
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

func NewHandler(svc Service, limiter *ratelimit.Limiter, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, limiter: limiter, log: log}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	allowed, err := h.limiter.Allow(c.Request.Context(), c.ClientIP())
	if err != nil {
		// Fail open: a limiter outage must not lock everyone out.
		h.log.Warn().Err(err).Msg("login rate limiter unavailable")
	}
	if !allowed {
		metrics.LoginAttempts.WithLabelValues("throttled").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, store.ErrUnavailable):
			metrics.LoginAttempts.WithLabelValues("error").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		default:
			metrics.LoginAttempts.WithLabelValues("error").Inc()
			h.log.Error().Err(err).Msg("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	metrics.TokensIssued.WithLabelValues("access").Inc()
	metrics.TokensIssued.WithLabelValues("refresh").Inc()
	c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		case errors.Is(err, store.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		default:
			h.log.Error().Err(err).Msg("refresh failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	metrics.TokensIssued.WithLabelValues("access").Inc()
	metrics.TokensIssued.WithLabelValues("refresh").Inc()
	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /auth/logout. Always succeeds for invalid tokens.
func (h *Handler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}
	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		h.log.Error().Err(err).Msg("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
