package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medical-vault/internal/domain/grants"
	"medical-vault/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

const recordColumns = `
	id, subject_id, category, kind,
	title, description, amount, file_ref,
	record_date, uploaded_at,
	uploaded_by_type, uploaded_by_id, holder_id,
	immutable, tombstoned
`

func (r *RecordsRepo) Create(ctx context.Context, rec records.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_records (
			id, subject_id, category, kind,
			title, description, amount, file_ref,
			record_date, uploaded_at,
			uploaded_by_type, uploaded_by_id, holder_id,
			immutable, tombstoned
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		rec.ID,
		rec.SubjectID,
		string(rec.Category),
		string(rec.Kind),
		rec.Title,
		rec.Description,
		toNullFloat(rec.Amount),
		rec.FileRef,
		rec.RecordDate,
		rec.UploadedAt,
		string(rec.UploadedByType),
		rec.UploadedByID,
		rec.HolderID,
		rec.Immutable,
		rec.Tombstoned,
	)
	return err
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.Record{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT`+recordColumns+`
		FROM medical_records
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return records.Record{}, ErrNotFound
	}
	return rec, err
}

func (r *RecordsRepo) ListBySubject(ctx context.Context, subjectID string, category grants.Scope, limit int) ([]records.Record, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	// category vacío listado completo; el CASE evita duplicar la query
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+recordColumns+`
		FROM medical_records
		WHERE subject_id = $1
		  AND tombstoned = FALSE
		  AND ($2 = '' OR category = $2)
		ORDER BY record_date DESC
		LIMIT $3
	`, subjectID, string(category), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Tombstone marca el registro como oculto. Nunca hay DELETE físico:
// la fila queda para auditoría.
func (r *RecordsRepo) Tombstone(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medical_records
		SET tombstoned = TRUE
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row rowScanner) (records.Record, error) {
	var rec records.Record
	var category, kind, uploadedByType string
	var amount sql.NullFloat64

	if err := row.Scan(
		&rec.ID,
		&rec.SubjectID,
		&category,
		&kind,
		&rec.Title,
		&rec.Description,
		&amount,
		&rec.FileRef,
		&rec.RecordDate,
		&rec.UploadedAt,
		&uploadedByType,
		&rec.UploadedByID,
		&rec.HolderID,
		&rec.Immutable,
		&rec.Tombstoned,
	); err != nil {
		return records.Record{}, err
	}

	rec.Category = grants.Scope(category)
	rec.Kind = records.Kind(kind)
	rec.UploadedByType = records.UploaderType(uploadedByType)
	if amount.Valid {
		v := amount.Float64
		rec.Amount = &v
	}
	return rec, nil
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
