package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medical-vault/internal/domain/grants"
	"medical-vault/internal/domain/records"
)

type recordRepo struct {
	mu   sync.RWMutex
	byID map[string]records.Record
}

func NewRecordRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.Record),
	}
}

func (r *recordRepo) Create(ctx context.Context, rec records.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return records.Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *recordRepo) ListBySubject(ctx context.Context, subjectID string, category grants.Scope, limit int) ([]records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	out := make([]records.Record, 0)
	for _, rec := range r.byID {
		if rec.SubjectID != subjectID {
			continue
		}
		if rec.Tombstoned {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, rec)
	}

	// Orden por record_date desc (más reciente primero)
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordDate.After(out[j].RecordDate)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Tombstone oculta el registro de listados sin borrar la fila: el
// historial es append-only, nunca hay delete físico.
func (r *recordRepo) Tombstone(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Tombstoned = true
	r.byID[id] = rec
	return nil
}
