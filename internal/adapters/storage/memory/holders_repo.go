package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"medical-vault/internal/domain/holders"
)

type holderRepo struct {
	mu         sync.RWMutex
	byID       map[string]holders.Holder
	byPublicID map[string]string // public_id -> id
}

func NewHolderRepo() holders.Repository {
	return &holderRepo{
		byID:       make(map[string]holders.Holder),
		byPublicID: make(map[string]string),
	}
}

func (r *holderRepo) Create(ctx context.Context, h holders.Holder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(h.ID) == "" {
		return errors.New("holder id required")
	}
	if _, exists := r.byID[h.ID]; exists {
		return errors.New("holder already exists")
	}
	if _, exists := r.byPublicID[h.PublicID]; exists {
		return errors.New("public id already taken")
	}
	r.byID[h.ID] = h
	r.byPublicID[h.PublicID] = h.ID
	return nil
}

func (r *holderRepo) GetByID(ctx context.Context, id string) (holders.Holder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byID[id]
	if !ok {
		return holders.Holder{}, ErrNotFound
	}
	return h, nil
}

func (r *holderRepo) GetByPublicID(ctx context.Context, publicID string) (holders.Holder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPublicID[publicID]
	if !ok {
		return holders.Holder{}, ErrNotFound
	}
	return r.byID[id], nil
}
