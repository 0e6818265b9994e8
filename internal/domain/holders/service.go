package holders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
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

type RegisterInput struct {
	PublicID        string
	Name            string
	Email           string
	Phone           string
	Specializations []string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Holder, error) {
	publicID := strings.TrimSpace(in.PublicID)
	name := strings.TrimSpace(in.Name)

	if publicID == "" || name == "" {
		return Holder{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByPublicID(ctx, publicID); err == nil {
		return Holder{}, ErrInvalidInput
	}

	specs := make([]string, 0, len(in.Specializations))
	for _, raw := range in.Specializations {
		if v := strings.TrimSpace(raw); v != "" {
			specs = append(specs, v)
		}
	}

	h := Holder{
		ID:              uuid.NewString(),
		PublicID:        publicID,
		Name:            name,
		Email:           strings.TrimSpace(strings.ToLower(in.Email)),
		Phone:           strings.TrimSpace(in.Phone),
		Specializations: specs,
		Active:          true,
		CreatedAt:       s.now(),
	}

	if err := s.repo.Create(ctx, h); err != nil {
		return Holder{}, err
	}
	return h, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Holder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Holder{}, ErrInvalidInput
	}
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Holder{}, ErrNotFound
	}
	return h, nil
}

// ResolveByPublicID es lo que usa el flujo de grants: el subject escribe el
// facility id público y acá se traduce al holder interno.
func (s *Service) ResolveByPublicID(ctx context.Context, publicID string) (Holder, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return Holder{}, ErrInvalidInput
	}
	h, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return Holder{}, ErrNotFound
	}
	return h, nil
}

// Exists implementa el lookup que valida el Grant Store al crear grants.
func (s *Service) Exists(ctx context.Context, holderID string) (bool, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return false, nil
	}
	h, err := s.repo.GetByID(ctx, holderID)
	if err != nil {
		// Un holder que no resuelve se trata como desconocido; el Grant Store
		// responde ValidationError, no 500.
		return false, nil
	}
	return h.Active, nil
}
