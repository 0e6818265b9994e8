package grants

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"medical-vault/internal/domain/audit"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// HolderLookup evita importar el paquete holders (rompe ciclos).
type HolderLookup interface {
	Exists(ctx context.Context, holderID string) (bool, error)
}

type Service struct {
	repo     Repository
	holders  HolderLookup
	auditlog *audit.Service
	now      func() time.Time
}

func NewService(repo Repository, holders HolderLookup, auditlog *audit.Service) *Service {
	return &Service{
		repo:     repo,
		holders:  holders,
		auditlog: auditlog,
		now:      time.Now,
	}
}

type CreateInput struct {
	SubjectID string
	HolderID  string
	Scopes    []Scope
	Mode      Mode

	// DurationDays > 0, o UntilRevoked=true (sentinel FarFuture).
	DurationDays int
	UntilRevoked bool
}

// Create siempre crea una fila nueva: los grants son aditivos e
// independientemente revocables, nunca se mergean con grants previos del par.
func (s *Service) Create(ctx context.Context, in CreateInput) (Grant, error) {
	subjectID := strings.TrimSpace(in.SubjectID)
	holderID := strings.TrimSpace(in.HolderID)

	if subjectID == "" || holderID == "" {
		return Grant{}, ErrInvalidInput
	}

	scopes, err := normalizeScopesStrict(in.Scopes)
	if err != nil {
		return Grant{}, err
	}
	if len(scopes) == 0 {
		return Grant{}, ErrInvalidInput
	}

	if in.Mode != ModeReadOnly && in.Mode != ModeUploadAllowed {
		return Grant{}, ErrInvalidInput
	}

	if !in.UntilRevoked && in.DurationDays <= 0 {
		return Grant{}, ErrInvalidInput
	}

	ok, err := s.holders.Exists(ctx, holderID)
	if err != nil {
		return Grant{}, err
	}
	if !ok {
		return Grant{}, ErrInvalidInput
	}

	now := s.now()
	expiresAt := FarFuture
	duration := "until_revoked"
	if !in.UntilRevoked {
		expiresAt = now.AddDate(0, 0, in.DurationDays)
		duration = strconv.Itoa(in.DurationDays) + "d"
	}

	g := Grant{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		HolderID:  holderID,
		Scopes:    scopes,
		Mode:      in.Mode,
		Status:    StatusActive,
		GrantedAt: now,
		ExpiresAt: expiresAt,
	}

	// Audit antes de commit: si el registro no persiste, la acción no sucede.
	err = s.auditlog.Record(ctx, audit.Event{
		SubjectID: subjectID,
		Type:      audit.EventAccessGranted,
		ActorType: audit.ActorSubject,
		ActorID:   subjectID,
		HolderID:  holderID,
		Details: map[string]any{
			"grant_id": g.ID,
			"scopes":   scopeStrings(scopes),
			"mode":     string(in.Mode),
			"duration": duration,
		},
		Timestamp: now,
	})
	if err != nil {
		return Grant{}, err
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// ListActive devuelve grants con status=active sin filtrar expiración:
// el subject debe poder ver "expirado pero no revocado" en su panel,
// no que desaparezca en silencio.
func (s *Service) ListActive(ctx context.Context, subjectID string) ([]Grant, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	out := make([]Grant, 0, len(items))
	for _, g := range items {
		if g.Status == StatusActive {
			out = append(out, g)
		}
	}
	return out, nil
}

// ListEffective es el set que consulta el motor de autorización:
// active Y no expirado, evaluado perezosamente contra el reloj.
func (s *Service) ListEffective(ctx context.Context, subjectID, holderID string) ([]Grant, error) {
	subjectID = strings.TrimSpace(subjectID)
	holderID = strings.TrimSpace(holderID)
	if subjectID == "" || holderID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListEffective(ctx, subjectID, holderID, s.now())
}

func (s *Service) ListEffectiveByHolder(ctx context.Context, holderID string) ([]Grant, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListEffectiveByHolder(ctx, holderID, s.now())
}

// Revoke es idempotente: revocar un grant ya revocado devuelve el mismo
// estado final sin error y sin duplicar el evento access_revoked.
// El check de ownership responde ErrNotFound para no revelar ids ajenos.
func (s *Service) Revoke(ctx context.Context, grantID, subjectID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	subjectID = strings.TrimSpace(subjectID)

	if grantID == "" || subjectID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.SubjectID != subjectID {
		return Grant{}, ErrNotFound
	}

	if g.Status == StatusRevoked {
		return g, nil
	}

	now := s.now()

	err = s.auditlog.Record(ctx, audit.Event{
		SubjectID: subjectID,
		Type:      audit.EventAccessRevoked,
		ActorType: audit.ActorSubject,
		ActorID:   subjectID,
		HolderID:  g.HolderID,
		Details:   map[string]any{"grant_id": g.ID},
		Timestamp: now,
	})
	if err != nil {
		return Grant{}, err
	}

	g.Status = StatusRevoked
	g.RevokedAt = &now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

func normalizeScopesStrict(in []Scope) ([]Scope, error) {
	seen := map[Scope]struct{}{}
	out := make([]Scope, 0, len(in))

	for _, raw := range in {
		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" {
			continue
		}
		s, ok := ParseScope(trimmed)
		if !ok {
			return nil, ErrInvalidInput
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out, nil
}

func scopeStrings(in []Scope) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}
