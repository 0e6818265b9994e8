package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medical-vault/internal/domain/audit"
)

type auditRepo struct {
	mu     sync.Mutex
	events []audit.Event
	seq    uint64
}

func NewAuditRepo() audit.Repository {
	return &auditRepo{
		events: make([]audit.Event, 0),
	}
}

// Append asigna Seq bajo el lock: dos eventos con el mismo timestamp
// (resolución de milisegundos) igual quedan totalmente ordenados.
func (r *auditRepo) Append(ctx context.Context, e audit.Event) (audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return audit.Event{}, errors.New("event id required")
	}
	r.seq++
	e.Seq = r.seq
	r.events = append(r.events, e)
	return e, nil
}

func (r *auditRepo) ListBySubject(ctx context.Context, subjectID string, limit int) ([]audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]audit.Event, 0)
	for _, e := range r.events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}

	// Más reciente primero; seq desempata timestamps iguales.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq > out[j].Seq
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
