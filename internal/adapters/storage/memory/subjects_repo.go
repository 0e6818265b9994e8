package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"medical-vault/internal/domain/subjects"
)

var (
	ErrNotFound = errors.New("not found")
)

type subjectRepo struct {
	mu          sync.RWMutex
	byID        map[string]subjects.Subject
	byMedicalID map[string]string // medical_id -> id
}

func NewSubjectRepo() subjects.Repository {
	return &subjectRepo{
		byID:        make(map[string]subjects.Subject),
		byMedicalID: make(map[string]string),
	}
}

func (r *subjectRepo) Create(ctx context.Context, s subjects.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("subject id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("subject already exists")
	}
	if _, exists := r.byMedicalID[s.MedicalID]; exists {
		return errors.New("medical id already taken")
	}
	r.byID[s.ID] = s
	r.byMedicalID[s.MedicalID] = s.ID
	return nil
}

func (r *subjectRepo) Update(ctx context.Context, s subjects.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("subject id required")
	}
	if _, exists := r.byID[s.ID]; !exists {
		return ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (subjects.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return subjects.Subject{}, ErrNotFound
	}
	return s, nil
}

func (r *subjectRepo) GetByMedicalID(ctx context.Context, medicalID string) (subjects.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byMedicalID[medicalID]
	if !ok {
		return subjects.Subject{}, ErrNotFound
	}
	return r.byID[id], nil
}
