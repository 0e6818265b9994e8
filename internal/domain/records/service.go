package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"medical-vault/internal/domain/audit"
	"medical-vault/internal/domain/grants"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const DefaultListLimit = 50

// Service cubre las operaciones del propio subject sobre sus registros.
// Las subidas de holders entran por el facade (vault), que audita como holder.
type Service struct {
	repo     Repository
	auditlog *audit.Service
	now      func() time.Time
}

func NewService(repo Repository, auditlog *audit.Service) *Service {
	return &Service{
		repo:     repo,
		auditlog: auditlog,
		now:      time.Now,
	}
}

type CreateInput struct {
	Category    grants.Scope
	Kind        Kind
	Title       string
	Description string
	Amount      *float64
	FileRef     string
	RecordDate  time.Time
}

func (s *Service) Create(ctx context.Context, subjectID string, in CreateInput) (Record, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Record{}, ErrInvalidInput
	}
	if _, ok := grants.ParseScope(string(in.Category)); !ok || in.Category == grants.ScopeProfile {
		return Record{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" {
		return Record{}, ErrInvalidInput
	}

	kind := in.Kind
	if kind == "" {
		kind = KindOther
	} else if _, ok := ParseKind(string(kind)); !ok {
		return Record{}, ErrInvalidInput
	}

	now := s.now()
	recordDate := in.RecordDate
	if recordDate.IsZero() {
		recordDate = now
	}

	rec := Record{
		ID:             uuid.NewString(),
		SubjectID:      subjectID,
		Category:       in.Category,
		Kind:           kind,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Amount:         in.Amount,
		FileRef:        strings.TrimSpace(in.FileRef),
		RecordDate:     recordDate,
		UploadedAt:     now,
		UploadedByType: UploaderSubject,
		UploadedByID:   subjectID,
		Immutable:      true,
	}

	// Audit antes de commit (fail-closed).
	err := s.auditlog.Record(ctx, audit.Event{
		SubjectID: subjectID,
		Type:      audit.EventDataUploaded,
		ActorType: audit.ActorSubject,
		ActorID:   subjectID,
		Details: map[string]any{
			"category":  string(in.Category),
			"record_id": rec.ID,
			"kind":      string(kind),
			"title":     rec.Title,
		},
		Timestamp: now,
	})
	if err != nil {
		return Record{}, err
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) ListBySubject(ctx context.Context, subjectID string, category grants.Scope, limit int) ([]Record, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrInvalidInput
	}
	if category != "" {
		if _, ok := grants.ParseScope(string(category)); !ok {
			return nil, ErrInvalidInput
		}
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListBySubject(ctx, subjectID, category, limit)
}

// Tombstone oculta el registro de listados sin borrarlo (la historia queda
// para auditoría). Solo el dueño puede hacerlo; es idempotente.
func (s *Service) Tombstone(ctx context.Context, recordID, subjectID string) (Record, error) {
	recordID = strings.TrimSpace(recordID)
	subjectID = strings.TrimSpace(subjectID)
	if recordID == "" || subjectID == "" {
		return Record{}, ErrInvalidInput
	}

	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return Record{}, ErrNotFound
	}
	if rec.SubjectID != subjectID {
		return Record{}, ErrNotFound
	}

	if rec.Tombstoned {
		return rec, nil
	}

	// El enum de eventos es cerrado; un tombstone se registra como mutación
	// de la colección con el detalle de la acción.
	err = s.auditlog.Record(ctx, audit.Event{
		SubjectID: subjectID,
		Type:      audit.EventDataUploaded,
		ActorType: audit.ActorSubject,
		ActorID:   subjectID,
		Details: map[string]any{
			"action":    "record_tombstoned",
			"record_id": rec.ID,
			"category":  string(rec.Category),
		},
		Timestamp: s.now(),
	})
	if err != nil {
		return Record{}, err
	}

	if err := s.repo.Tombstone(ctx, recordID); err != nil {
		return Record{}, err
	}
	rec.Tombstoned = true
	return rec, nil
}
