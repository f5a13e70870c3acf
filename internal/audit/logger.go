// Package audit records best-effort audit events for auth and user-management
// operations. Failures to persist are logged and never affect the caller.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"auth-core/internal/audit/domain"
	auditrepo "auth-core/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// Recorder writes a single audit event with explicit action/resource.
type Recorder interface {
	Record(ctx context.Context, userID, action, resource, metadata string)
}

// Logger implements Recorder using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	log         zerolog.Logger
	ipExtractor IPExtractor
}

// NewLogger returns a Recorder that persists to repo and uses ipExtractor for
// the client IP. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, log zerolog.Logger, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, log: log, ipExtractor: ipExtractor}
}

// Record writes one audit entry. Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn().Err(err).Str("action", action).Str("resource", resource).Msg("audit: failed to record event")
	}
}
