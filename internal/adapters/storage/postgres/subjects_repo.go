package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medical-vault/internal/domain/subjects"
)

type SubjectsRepo struct {
	db *sql.DB
}

func NewSubjectsRepo(db *sql.DB) *SubjectsRepo {
	return &SubjectsRepo{db: db}
}

const subjectColumns = `
	id, medical_id, email,
	blood_group, allergies, chronic_conditions, current_medications,
	past_surgeries, disabilities,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
	active, created_at, updated_at
`

func (r *SubjectsRepo) Create(ctx context.Context, s subjects.Subject) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subjects (
			id, medical_id, email,
			blood_group, allergies, chronic_conditions, current_medications,
			past_surgeries, disabilities,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
			active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		s.ID,
		s.MedicalID,
		s.Email,
		s.Profile.BloodGroup,
		s.Profile.Allergies,
		s.Profile.ChronicConditions,
		s.Profile.CurrentMedications,
		s.Profile.PastSurgeries,
		s.Profile.Disabilities,
		s.Profile.EmergencyContactName,
		s.Profile.EmergencyContactPhone,
		s.Profile.EmergencyContactRelation,
		s.Active,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *SubjectsRepo) Update(ctx context.Context, s subjects.Subject) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subjects
		SET
			email = $2,
			blood_group = $3,
			allergies = $4,
			chronic_conditions = $5,
			current_medications = $6,
			past_surgeries = $7,
			disabilities = $8,
			emergency_contact_name = $9,
			emergency_contact_phone = $10,
			emergency_contact_relation = $11,
			active = $12,
			updated_at = $13
		WHERE id = $1
	`,
		s.ID,
		s.Email,
		s.Profile.BloodGroup,
		s.Profile.Allergies,
		s.Profile.ChronicConditions,
		s.Profile.CurrentMedications,
		s.Profile.PastSurgeries,
		s.Profile.Disabilities,
		s.Profile.EmergencyContactName,
		s.Profile.EmergencyContactPhone,
		s.Profile.EmergencyContactRelation,
		s.Active,
		s.UpdatedAt,
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

func (r *SubjectsRepo) GetByID(ctx context.Context, id string) (subjects.Subject, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return subjects.Subject{}, ErrNotFound
	}
	return r.getWhere(ctx, "id", id)
}

func (r *SubjectsRepo) GetByMedicalID(ctx context.Context, medicalID string) (subjects.Subject, error) {
	medicalID = strings.TrimSpace(medicalID)
	if medicalID == "" {
		return subjects.Subject{}, ErrNotFound
	}
	return r.getWhere(ctx, "medical_id", medicalID)
}

func (r *SubjectsRepo) getWhere(ctx context.Context, column, value string) (subjects.Subject, error) {
	// column viene de un set fijo interno, nunca del request
	row := r.db.QueryRowContext(ctx, `
		SELECT`+subjectColumns+`
		FROM subjects
		WHERE `+column+` = $1
	`, value)

	var s subjects.Subject
	if err := row.Scan(
		&s.ID,
		&s.MedicalID,
		&s.Email,
		&s.Profile.BloodGroup,
		&s.Profile.Allergies,
		&s.Profile.ChronicConditions,
		&s.Profile.CurrentMedications,
		&s.Profile.PastSurgeries,
		&s.Profile.Disabilities,
		&s.Profile.EmergencyContactName,
		&s.Profile.EmergencyContactPhone,
		&s.Profile.EmergencyContactRelation,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return subjects.Subject{}, ErrNotFound
		}
		return subjects.Subject{}, err
	}

	return s, nil
}
