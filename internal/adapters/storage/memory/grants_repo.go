package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"medical-vault/internal/domain/grants"
)

type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]grants.Grant
}

func NewGrantRepo() grants.Repository {
	return &grantRepo{
		byID: make(map[string]grants.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g grants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) Update(ctx context.Context, g grants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; !exists {
		return ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return grants.Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) ListBySubject(ctx context.Context, subjectID string) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.SubjectID == subjectID {
			out = append(out, g)
		}
	}

	// Orden estable por granted_at desc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].GrantedAt.After(out[j].GrantedAt)
	})

	return out, nil
}

func (r *grantRepo) ListEffective(ctx context.Context, subjectID, holderID string, now time.Time) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.SubjectID != subjectID || g.HolderID != holderID {
			continue
		}
		if !g.EffectiveAt(now) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *grantRepo) ListEffectiveByHolder(ctx context.Context, holderID string, now time.Time) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.HolderID != holderID {
			continue
		}
		if !g.EffectiveAt(now) {
			continue
		}
		out = append(out, g)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].GrantedAt.After(out[j].GrantedAt)
	})

	return out, nil
}
