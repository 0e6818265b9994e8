package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"medical-vault/internal/domain/grants"
)

type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

const grantColumns = `
	id, subject_id, holder_id,
	scopes, mode, status,
	granted_at, expires_at, revoked_at
`

func (r *GrantsRepo) Create(ctx context.Context, g grants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consent_grants (
			id, subject_id, holder_id,
			scopes, mode, status,
			granted_at, expires_at, revoked_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		g.ID,
		g.SubjectID,
		g.HolderID,
		scopesToTextArray(g.Scopes),
		string(g.Mode),
		string(g.Status),
		g.GrantedAt,
		g.ExpiresAt,
		toNullTime(g.RevokedAt),
	)
	return err
}

func (r *GrantsRepo) Update(ctx context.Context, g grants.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE consent_grants
		SET
			scopes = $2,
			mode = $3,
			status = $4,
			expires_at = $5,
			revoked_at = $6
		WHERE id = $1
	`,
		g.ID,
		scopesToTextArray(g.Scopes),
		string(g.Mode),
		string(g.Status),
		g.ExpiresAt,
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GrantsRepo) GetByID(ctx context.Context, id string) (grants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return grants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT`+grantColumns+`
		FROM consent_grants
		WHERE id = $1
	`, id)

	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return grants.Grant{}, ErrNotFound
	}
	return g, err
}

func (r *GrantsRepo) ListBySubject(ctx context.Context, subjectID string) ([]grants.Grant, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+grantColumns+`
		FROM consent_grants
		WHERE subject_id = $1
		ORDER BY granted_at DESC
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

// La ventana de vigencia se filtra en SQL para no traer filas muertas;
// until_revoked viaja como expires_at=2099-12-31 así que entra sola
// en la misma comparación.
func (r *GrantsRepo) ListEffective(ctx context.Context, subjectID, holderID string, now time.Time) ([]grants.Grant, error) {
	subjectID = strings.TrimSpace(subjectID)
	holderID = strings.TrimSpace(holderID)
	if subjectID == "" || holderID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+grantColumns+`
		FROM consent_grants
		WHERE subject_id = $1
		  AND holder_id = $2
		  AND status = 'active'
		  AND expires_at > $3
	`, subjectID, holderID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

func (r *GrantsRepo) ListEffectiveByHolder(ctx context.Context, holderID string, now time.Time) ([]grants.Grant, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+grantColumns+`
		FROM consent_grants
		WHERE holder_id = $1
		  AND status = 'active'
		  AND expires_at > $2
		ORDER BY granted_at DESC
	`, holderID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (grants.Grant, error) {
	var g grants.Grant
	var mode, status string
	var scopes []string
	var revokedAt sql.NullTime

	if err := row.Scan(
		&g.ID,
		&g.SubjectID,
		&g.HolderID,
		&scopes,
		&mode,
		&status,
		&g.GrantedAt,
		&g.ExpiresAt,
		&revokedAt,
	); err != nil {
		return grants.Grant{}, err
	}

	g.Mode = grants.Mode(mode)
	g.Status = grants.Status(status)
	g.Scopes = textArrayToScopes(scopes)
	if revokedAt.Valid {
		t := revokedAt.Time
		g.RevokedAt = &t
	}
	return g, nil
}

func collectGrants(rows *sql.Rows) ([]grants.Grant, error) {
	out := make([]grants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// helpers
func scopesToTextArray(in []grants.Scope) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func textArrayToScopes(in []string) []grants.Scope {
	if len(in) == 0 {
		return []grants.Scope{}
	}
	out := make([]grants.Scope, 0, len(in))
	for _, s := range in {
		out = append(out, grants.Scope(s))
	}
	return out
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
