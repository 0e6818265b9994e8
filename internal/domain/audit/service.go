package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 500
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Record persiste un evento. Si el storage falla, el error se propaga tal cual:
// el caller (facade, grants, subjects) debe fallar su operación completa,
// nunca seguir sin registro (fail-closed).
func (s *Service) Record(ctx context.Context, e Event) error {
	if strings.TrimSpace(e.SubjectID) == "" {
		return ErrInvalidInput
	}
	if e.Type == "" || e.ActorType == "" {
		return ErrInvalidInput
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}

	_, err := s.repo.Append(ctx, e)
	return err
}

// Query es lectura pura: no genera eventos propios.
func (s *Service) Query(ctx context.Context, subjectID string, limit int) ([]Event, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrInvalidInput
	}

	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	return s.repo.ListBySubject(ctx, subjectID, limit)
}
