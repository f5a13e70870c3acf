// Package server wires the HTTP surface: router, middleware, handlers, and
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"auth-core/internal/audit"
	auditrepo "auth-core/internal/audit/repository"
	authhandler "auth-core/internal/auth/handler"
	"auth-core/internal/auth/service"
	"auth-core/internal/authz/engine"
	"auth-core/internal/config"
	healthhandler "auth-core/internal/health/handler"
	"auth-core/internal/ratelimit"
	"auth-core/internal/security"
	"auth-core/internal/server/middleware"
	sessionrepo "auth-core/internal/session/repository"
	userhandler "auth-core/internal/user/handler"
	userrepo "auth-core/internal/user/repository"
)

// Server is the HTTP server plus the resources it owns.
type Server struct {
	cfg    *config.Config
	log    zerolog.Logger
	db     *sql.DB
	rdb    *redis.Client
	router *gin.Engine
	httpd  *http.Server

	svc *service.AuthService
}

// New builds the full dependency graph over an open database handle. rdb may
// be nil; login throttling is then disabled.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, database *sql.DB, rdb *redis.Client) (*Server, error) {
	tokens, err := newTokenProvider(cfg)
	if err != nil {
		return nil, err
	}

	eval, err := engine.NewOPAEvaluator(ctx)
	if err != nil {
		return nil, err
	}

	timeout := cfg.StoreTimeout()
	users := userrepo.NewPostgresRepository(database, timeout)
	sessions := sessionrepo.NewPostgresRepository(database, timeout)
	audits := auditrepo.NewPostgresRepository(database, timeout)

	auditor := audit.NewLogger(audits, log, middleware.ClientIP)
	hasher := security.NewHasher(cfg.BcryptCost)
	svc := service.NewAuthService(users, sessions, hasher, tokens, auditor, log)

	var limiter *ratelimit.Limiter
	if rdb != nil {
		limiter = ratelimit.New(rdb, "authcore:login", cfg.LoginRate, cfg.LoginBurst)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	s := &Server{
		cfg:    cfg,
		log:    log,
		db:     database,
		rdb:    rdb,
		router: router,
		svc:    svc,
	}
	s.registerRoutes(authhandler.NewHandler(svc, limiter, log), userhandler.NewHandler(svc, eval, audits, log), healthhandler.NewHandler(database))
	return s, nil
}

func newTokenProvider(cfg *config.Config) (*security.TokenProvider, error) {
	if cfg.JWTSecret != "" {
		return security.NewHMACTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL()), nil
	}
	priv, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		return nil, err
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		return nil, err
	}
	return security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL()), nil
}

func (s *Server) registerRoutes(auth *authhandler.Handler, users *userhandler.Handler, health *healthhandler.Handler) {
	s.router.GET("/healthz", health.Healthz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/login", auth.Login)
	s.router.POST("/auth/refresh", auth.Refresh)
	s.router.POST("/auth/logout", auth.Logout)

	authed := s.router.Group("/")
	authed.Use(middleware.RequireAuth(s.svc))
	authed.POST("/users", users.Create)
	authed.GET("/users", users.List)
	authed.GET("/users/:id", users.Get)
	authed.PATCH("/users/:id/status", users.UpdateStatus)
	authed.PATCH("/users/:id/role", users.UpdateRole)
	authed.GET("/users/:id/audit", users.ListAudit)
	authed.PUT("/users/me/push-token", users.SetPushToken)
}

// Router returns the HTTP handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.httpd = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.HTTPAddr).Msg("http server listening")
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpd.Shutdown(shutdownCtx)
}

// Close releases the database and Redis handles.
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
