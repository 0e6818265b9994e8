package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medical-vault/internal/domain/holders"
)

type HoldersRepo struct {
	db *sql.DB
}

func NewHoldersRepo(db *sql.DB) *HoldersRepo {
	return &HoldersRepo{db: db}
}

const holderColumns = `
	id, public_id, name, email, phone,
	specializations, verified, active, created_at
`

func (r *HoldersRepo) Create(ctx context.Context, h holders.Holder) error {
	specs := h.Specializations
	if specs == nil {
		specs = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO holders (
			id, public_id, name, email, phone,
			specializations, verified, active, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		h.ID,
		h.PublicID,
		h.Name,
		h.Email,
		h.Phone,
		specs,
		h.Verified,
		h.Active,
		h.CreatedAt,
	)
	return err
}

func (r *HoldersRepo) GetByID(ctx context.Context, id string) (holders.Holder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return holders.Holder{}, ErrNotFound
	}
	return r.getWhere(ctx, "id", id)
}

func (r *HoldersRepo) GetByPublicID(ctx context.Context, publicID string) (holders.Holder, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return holders.Holder{}, ErrNotFound
	}
	return r.getWhere(ctx, "public_id", publicID)
}

func (r *HoldersRepo) getWhere(ctx context.Context, column, value string) (holders.Holder, error) {
	// column viene de un set fijo interno, nunca del request
	row := r.db.QueryRowContext(ctx, `
		SELECT`+holderColumns+`
		FROM holders
		WHERE `+column+` = $1
	`, value)

	var h holders.Holder
	var specs []string
	if err := row.Scan(
		&h.ID,
		&h.PublicID,
		&h.Name,
		&h.Email,
		&h.Phone,
		&specs,
		&h.Verified,
		&h.Active,
		&h.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return holders.Holder{}, ErrNotFound
		}
		return holders.Holder{}, err
	}

	h.Specializations = specs
	return h, nil
}
