package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureRepo struct {
	appended  []Event
	lastLimit int
	failWith  error
}

func (r *captureRepo) Append(ctx context.Context, e Event) (Event, error) {
	if r.failWith != nil {
		return Event{}, r.failWith
	}
	e.Seq = uint64(len(r.appended) + 1)
	r.appended = append(r.appended, e)
	return e, nil
}

func (r *captureRepo) ListBySubject(ctx context.Context, subjectID string, limit int) ([]Event, error) {
	r.lastLimit = limit
	return nil, nil
}

func TestService_Record_FillsIDAndTimestamp(t *testing.T) {
	repo := &captureRepo{}
	svc := NewService(repo)

	now := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	err := svc.Record(context.Background(), Event{
		SubjectID: "sub-1",
		Type:      EventDataViewed,
		ActorType: ActorHolder,
		ActorID:   "hold-1",
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	e := repo.appended[0]
	if e.ID == "" {
		t.Fatalf("expected generated event id")
	}
	if !e.Timestamp.Equal(now) {
		t.Fatalf("expected timestamp filled with now, got %v", e.Timestamp)
	}
}

func TestService_Record_RejectsIncompleteEvents(t *testing.T) {
	svc := NewService(&captureRepo{})

	cases := []Event{
		{Type: EventDataViewed, ActorType: ActorHolder},              // sin subject
		{SubjectID: "sub-1", ActorType: ActorHolder},                 // sin tipo
		{SubjectID: "sub-1", Type: EventDataViewed},                  // sin actor
	}
	for i, e := range cases {
		if err := svc.Record(context.Background(), e); err != ErrInvalidInput {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_Record_PropagatesStorageError(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(&captureRepo{failWith: boom})

	err := svc.Record(context.Background(), Event{
		SubjectID: "sub-1",
		Type:      EventAccessGranted,
		ActorType: ActorSubject,
		ActorID:   "sub-1",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error untouched, got %v", err)
	}
}

func TestService_Query_BoundsLimit(t *testing.T) {
	repo := &captureRepo{}
	svc := NewService(repo)

	if _, err := svc.Query(context.Background(), "sub-1", 0); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if repo.lastLimit != DefaultQueryLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultQueryLimit, repo.lastLimit)
	}

	if _, err := svc.Query(context.Background(), "sub-1", 9999); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if repo.lastLimit != MaxQueryLimit {
		t.Fatalf("expected max limit %d, got %d", MaxQueryLimit, repo.lastLimit)
	}
}
