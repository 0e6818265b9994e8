package holders

import "context"

type Repository interface {
	Create(ctx context.Context, h Holder) error
	GetByID(ctx context.Context, id string) (Holder, error)
	GetByPublicID(ctx context.Context, publicID string) (Holder, error)
}
