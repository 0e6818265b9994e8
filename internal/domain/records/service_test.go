package records

import (
	"context"
	"testing"
	"time"

	"medical-vault/internal/domain/audit"
	"medical-vault/internal/domain/grants"
)

type testRepo struct {
	byID map[string]Record
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Record{}}
}

func (r *testRepo) Create(ctx context.Context, rec Record) error {
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Record, error) {
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *testRepo) ListBySubject(ctx context.Context, subjectID string, category grants.Scope, limit int) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range r.byID {
		if rec.SubjectID != subjectID || rec.Tombstoned {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *testRepo) Tombstone(ctx context.Context, id string) error {
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Tombstoned = true
	r.byID[id] = rec
	return nil
}

type testAuditRepo struct {
	events []audit.Event
}

func (r *testAuditRepo) Append(ctx context.Context, e audit.Event) (audit.Event, error) {
	e.Seq = uint64(len(r.events) + 1)
	r.events = append(r.events, e)
	return e, nil
}

func (r *testAuditRepo) ListBySubject(ctx context.Context, subjectID string, limit int) ([]audit.Event, error) {
	return r.events, nil
}

func TestService_Create_RejectsProfileCategory(t *testing.T) {
	svc := NewService(newTestRepo(), audit.NewService(&testAuditRepo{}))

	_, err := svc.Create(context.Background(), "sub-1", CreateInput{
		Category: grants.ScopeProfile,
		Title:    "should fail",
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for profile category, got %v", err)
	}
}

func TestService_Create_DefaultsAndImmutability(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, audit.NewService(&testAuditRepo{}))

	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rec, err := svc.Create(context.Background(), "sub-1", CreateInput{
		Category: grants.ScopeRecords,
		Title:    "Radiografía",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if rec.Kind != KindOther {
		t.Fatalf("expected default kind other, got %s", rec.Kind)
	}
	if !rec.RecordDate.Equal(now) {
		t.Fatalf("expected record_date defaulted to now")
	}
	if !rec.Immutable || rec.UploadedByType != UploaderSubject {
		t.Fatalf("expected immutable subject upload, got %#v", rec)
	}
}

func TestService_Tombstone_OwnershipAndIdempotence(t *testing.T) {
	repo := newTestRepo()
	auditRepo := &testAuditRepo{}
	svc := NewService(repo, audit.NewService(auditRepo))

	rec, err := svc.Create(context.Background(), "sub-1", CreateInput{
		Category: grants.ScopeLabResults,
		Kind:     KindLabReport,
		Title:    "CBC",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Ajeno: 404, no revela existencia.
	if _, err := svc.Tombstone(context.Background(), rec.ID, "sub-2"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign record, got %v", err)
	}

	before := len(auditRepo.events)

	t1, err := svc.Tombstone(context.Background(), rec.ID, "sub-1")
	if err != nil {
		t.Fatalf("Tombstone error: %v", err)
	}
	if !t1.Tombstoned {
		t.Fatalf("expected tombstoned")
	}

	// Segundo tombstone: mismo estado, sin evento nuevo.
	if _, err := svc.Tombstone(context.Background(), rec.ID, "sub-1"); err != nil {
		t.Fatalf("idempotent Tombstone error: %v", err)
	}
	if got := len(auditRepo.events) - before; got != 1 {
		t.Fatalf("expected exactly 1 tombstone audit event, got %d", got)
	}

	// Desaparece de listados pero la fila sigue.
	items, _ := svc.ListBySubject(context.Background(), "sub-1", "", 10)
	if len(items) != 0 {
		t.Fatalf("tombstoned record must not list, got %d", len(items))
	}
	if _, err := repo.GetByID(context.Background(), rec.ID); err != nil {
		t.Fatalf("tombstoned record must still exist: %v", err)
	}
}
