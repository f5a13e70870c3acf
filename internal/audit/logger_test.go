package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"auth-core/internal/audit/domain"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	fail    bool
}

func (r *memAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("db down")
	}
	r.entries = append(r.entries, a)
	return nil
}

func (r *memAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for _, a := range r.entries {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestRecord_PersistsEntry(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo, zerolog.Nop(), func(context.Context) string { return "10.0.0.1" })

	l.Record(context.Background(), "u1", domain.ActionLoginSuccess, "auth", "")

	if len(repo.entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" || e.UserID != "u1" || e.Action != domain.ActionLoginSuccess || e.IP != "10.0.0.1" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestRecord_NilExtractorAndRepoFailure(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo, zerolog.Nop(), nil)
	l.Record(context.Background(), "", domain.ActionLoginFailure, "auth", "email=unknown")
	if repo.entries[0].IP != "unknown" {
		t.Errorf("nil extractor should record IP unknown, got %q", repo.entries[0].IP)
	}

	// A failing repo must not panic or surface the error.
	failing := &memAuditRepo{fail: true}
	NewLogger(failing, zerolog.Nop(), nil).Record(context.Background(), "u1", domain.ActionLogout, "auth", "")
}

func TestRecord_NilRepoIsNoop(t *testing.T) {
	NewLogger(nil, zerolog.Nop(), nil).Record(context.Background(), "u1", domain.ActionLogout, "auth", "")
}
