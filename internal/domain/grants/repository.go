package grants

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, g Grant) error
	Update(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Grant, error)

	// ListEffective devuelve grants con status=active y now < expires_at.
	// El filtro de expiración va en el storage para no traer filas muertas.
	ListEffective(ctx context.Context, subjectID, holderID string, now time.Time) ([]Grant, error)

	// ListEffectiveByHolder es la vista del hospital: sus grants vigentes sobre cualquier subject.
	ListEffectiveByHolder(ctx context.Context, holderID string, now time.Time) ([]Grant, error)
}
