package subjects

import "context"

type Repository interface {
	Create(ctx context.Context, s Subject) error
	Update(ctx context.Context, s Subject) error
	GetByID(ctx context.Context, id string) (Subject, error)
	GetByMedicalID(ctx context.Context, medicalID string) (Subject, error)
}
