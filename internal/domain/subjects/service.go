package subjects

import (
	"context"
	"errors"
	"strings"
	"time"

	"medical-vault/internal/domain/audit"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo     Repository
	auditlog *audit.Service
	now      func() time.Time
}

func NewService(repo Repository, auditlog *audit.Service) *Service {
	return &Service{
		repo:     repo,
		auditlog: auditlog,
		now:      time.Now,
	}
}

type CreateInput struct {
	Email   string
	Profile Profile
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Subject, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return Subject{}, ErrInvalidInput
	}

	now := s.now()
	sub := Subject{
		ID:        uuid.NewString(),
		MedicalID: newMedicalID(),
		Email:     email,
		Profile:   in.Profile,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.auditlog.Record(ctx, audit.Event{
		SubjectID: sub.ID,
		Type:      audit.EventLogin,
		ActorType: audit.ActorSubject,
		ActorID:   sub.ID,
		Details:   map[string]any{"action": "account created"},
		Timestamp: now,
	})
	if err != nil {
		return Subject{}, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return Subject{}, err
	}
	return sub, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Subject, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Subject{}, ErrInvalidInput
	}
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Subject{}, ErrNotFound
	}
	return sub, nil
}

func (s *Service) GetByMedicalID(ctx context.Context, medicalID string) (Subject, error) {
	medicalID = strings.TrimSpace(medicalID)
	if medicalID == "" {
		return Subject{}, ErrInvalidInput
	}
	sub, err := s.repo.GetByMedicalID(ctx, medicalID)
	if err != nil {
		return Subject{}, ErrNotFound
	}
	return sub, nil
}

// UpdateProfileInput usa punteros: solo los campos presentes se tocan,
// y la lista de campos tocados queda en el evento de auditoría.
type UpdateProfileInput struct {
	BloodGroup               *string
	Allergies                *string
	ChronicConditions        *string
	CurrentMedications       *string
	PastSurgeries            *string
	Disabilities             *string
	EmergencyContactName     *string
	EmergencyContactPhone    *string
	EmergencyContactRelation *string
}

// UpdateProfile: el subject siempre tiene autoridad total sobre sus datos,
// así que no pasa por el motor de autorización, pero audita igual.
func (s *Service) UpdateProfile(ctx context.Context, subjectID string, in UpdateProfileInput) (Subject, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Subject{}, ErrInvalidInput
	}

	sub, err := s.repo.GetByID(ctx, subjectID)
	if err != nil {
		return Subject{}, ErrNotFound
	}

	updated := make([]string, 0, 9)
	apply := func(name string, dst *string, src *string) {
		if src == nil {
			return
		}
		*dst = strings.TrimSpace(*src)
		updated = append(updated, name)
	}

	apply("blood_group", &sub.Profile.BloodGroup, in.BloodGroup)
	apply("allergies", &sub.Profile.Allergies, in.Allergies)
	apply("chronic_conditions", &sub.Profile.ChronicConditions, in.ChronicConditions)
	apply("current_medications", &sub.Profile.CurrentMedications, in.CurrentMedications)
	apply("past_surgeries", &sub.Profile.PastSurgeries, in.PastSurgeries)
	apply("disabilities", &sub.Profile.Disabilities, in.Disabilities)
	apply("emergency_contact_name", &sub.Profile.EmergencyContactName, in.EmergencyContactName)
	apply("emergency_contact_phone", &sub.Profile.EmergencyContactPhone, in.EmergencyContactPhone)
	apply("emergency_contact_relation", &sub.Profile.EmergencyContactRelation, in.EmergencyContactRelation)

	if len(updated) == 0 {
		return Subject{}, ErrInvalidInput
	}

	now := s.now()
	sub.UpdatedAt = now

	err = s.auditlog.Record(ctx, audit.Event{
		SubjectID: sub.ID,
		Type:      audit.EventProfileUpdated,
		ActorType: audit.ActorSubject,
		ActorID:   sub.ID,
		Details:   map[string]any{"updated_fields": updated},
		Timestamp: now,
	})
	if err != nil {
		return Subject{}, err
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return Subject{}, err
	}
	return sub, nil
}

func newMedicalID() string {
	return "MED-USR-" + strings.ToUpper(uuid.NewString()[:8])
}
