package records

import (
	"context"

	"medical-vault/internal/domain/grants"
)

type Repository interface {
	Create(ctx context.Context, r Record) error
	GetByID(ctx context.Context, id string) (Record, error)

	// ListBySubject excluye tombstoned. category vacío = todas las categorías.
	ListBySubject(ctx context.Context, subjectID string, category grants.Scope, limit int) ([]Record, error)

	Tombstone(ctx context.Context, id string) error
}
