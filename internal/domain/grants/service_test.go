package grants

import (
	"context"
	"errors"
	"testing"
	"time"

	"medical-vault/internal/domain/audit"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Grant
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	if _, ok := r.byID[g.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return g, nil
}

func (r *testRepo) ListBySubject(ctx context.Context, subjectID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.SubjectID == subjectID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListEffective(ctx context.Context, subjectID, holderID string, now time.Time) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.SubjectID == subjectID && g.HolderID == holderID && g.EffectiveAt(now) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListEffectiveByHolder(ctx context.Context, holderID string, now time.Time) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.HolderID == holderID && g.EffectiveAt(now) {
			out = append(out, g)
		}
	}
	return out, nil
}

type testAuditRepo struct {
	events []audit.Event
	seq    uint64
}

func (r *testAuditRepo) Append(ctx context.Context, e audit.Event) (audit.Event, error) {
	r.seq++
	e.Seq = r.seq
	r.events = append(r.events, e)
	return e, nil
}

func (r *testAuditRepo) ListBySubject(ctx context.Context, subjectID string, limit int) ([]audit.Event, error) {
	out := make([]audit.Event, 0)
	for _, e := range r.events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *testAuditRepo) countByType(t audit.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type holdersAlwaysThere struct{}

func (holdersAlwaysThere) Exists(ctx context.Context, holderID string) (bool, error) {
	return holderID != "ghost", nil
}

func newTestService() (*Service, *testRepo, *testAuditRepo) {
	repo := newTestRepo()
	auditRepo := &testAuditRepo{}
	svc := NewService(repo, holdersAlwaysThere{}, audit.NewService(auditRepo))
	return svc, repo, auditRepo
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_RejectsUnknownScope(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "hold-1",
		Scopes:       []Scope{ScopeRecords, Scope("x_rays")},
		Mode:         ModeReadOnly,
		DurationDays: 30,
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Create_RejectsEmptyScopes(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "hold-1",
		Scopes:       []Scope{Scope("  ")},
		Mode:         ModeReadOnly,
		DurationDays: 30,
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for empty scopes, got %v", err)
	}
}

func TestService_Create_RejectsUnknownHolder(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "ghost",
		Scopes:       []Scope{ScopeRecords},
		Mode:         ModeReadOnly,
		DurationDays: 30,
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for unknown holder, got %v", err)
	}
}

func TestService_Create_DurationSetsExpiry_AndAuditsOnce(t *testing.T) {
	svc, _, auditRepo := newTestService()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "hold-1",
		Scopes:       []Scope{ScopeRecords, ScopeLabResults, ScopeRecords}, // dup se colapsa
		Mode:         ModeUploadAllowed,
		DurationDays: 30,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if want := now.AddDate(0, 0, 30); !g.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, g.ExpiresAt)
	}
	if len(g.Scopes) != 2 {
		t.Fatalf("expected deduped scopes, got %#v", g.Scopes)
	}
	if !g.EffectiveAt(now) {
		t.Fatalf("expected grant effective at creation")
	}
	if g.EffectiveAt(now.AddDate(0, 0, 30)) {
		t.Fatalf("expected grant expired exactly at expires_at")
	}

	if n := auditRepo.countByType(audit.EventAccessGranted); n != 1 {
		t.Fatalf("expected 1 access_granted event, got %d", n)
	}
	ev := auditRepo.events[0]
	if ev.Details["duration"] != "30d" {
		t.Fatalf("expected duration detail 30d, got %v", ev.Details["duration"])
	}
}

func TestService_Create_UntilRevoked_UsesFarFuture(t *testing.T) {
	svc, _, _ := newTestService()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "hold-1",
		Scopes:       []Scope{ScopeProfile},
		Mode:         ModeReadOnly,
		UntilRevoked: true,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if !g.ExpiresAt.Equal(FarFuture) {
		t.Fatalf("expected FarFuture sentinel, got %v", g.ExpiresAt)
	}
	if !g.UntilRevoked() {
		t.Fatalf("expected UntilRevoked()")
	}
	// Diez años después sigue vigente, sin renovación.
	if !g.EffectiveAt(now.AddDate(10, 0, 0)) {
		t.Fatalf("expected until_revoked grant effective after 10 years")
	}
}

func TestService_Revoke_Idempotent_SingleAuditEvent(t *testing.T) {
	svc, _, auditRepo := newTestService()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "hold-1",
		Scopes:       []Scope{ScopeRecords},
		Mode:         ModeReadOnly,
		DurationDays: 30,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	r1, err := svc.Revoke(context.Background(), g.ID, "sub-1")
	if err != nil {
		t.Fatalf("Revoke #1 error: %v", err)
	}
	if r1.Status != StatusRevoked || r1.RevokedAt == nil {
		t.Fatalf("expected revoked with revoked_at, got %#v", r1)
	}

	r2, err := svc.Revoke(context.Background(), g.ID, "sub-1")
	if err != nil {
		t.Fatalf("Revoke #2 (idempotent) error: %v", err)
	}
	if r2.Status != StatusRevoked {
		t.Fatalf("expected revoked after second revoke, got %s", r2.Status)
	}

	if n := auditRepo.countByType(audit.EventAccessRevoked); n != 1 {
		t.Fatalf("expected exactly 1 access_revoked event, got %d", n)
	}
}

func TestService_Revoke_OwnershipMismatch_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	g, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "hold-1",
		Scopes:       []Scope{ScopeRecords},
		Mode:         ModeReadOnly,
		DurationDays: 30,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Otro subject no distingue "ajeno" de "inexistente".
	if _, err := svc.Revoke(context.Background(), g.ID, "sub-2"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign grant, got %v", err)
	}
	if _, err := svc.Revoke(context.Background(), "nope", "sub-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing grant, got %v", err)
	}
}

func TestService_ListActive_KeepsExpired_ListEffectiveDrops(t *testing.T) {
	svc, _, _ := newTestService()

	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	g, err := svc.Create(context.Background(), CreateInput{
		SubjectID:    "sub-1",
		HolderID:     "hold-1",
		Scopes:       []Scope{ScopeRecords},
		Mode:         ModeReadOnly,
		DurationDays: 7,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Reloj avanza más allá del vencimiento.
	svc.now = func() time.Time { return start.AddDate(0, 0, 8) }

	active, err := svc.ListActive(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(active) != 1 || active[0].ID != g.ID {
		t.Fatalf("expected expired-but-not-revoked grant visible to subject, got %#v", active)
	}

	effective, err := svc.ListEffective(context.Background(), "sub-1", "hold-1")
	if err != nil {
		t.Fatalf("ListEffective error: %v", err)
	}
	if len(effective) != 0 {
		t.Fatalf("expected no effective grants after expiry, got %#v", effective)
	}
}
