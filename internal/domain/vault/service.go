package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medical-vault/internal/domain/audit"
	"medical-vault/internal/domain/authz"
	"medical-vault/internal/domain/grants"
	"medical-vault/internal/domain/records"
	"medical-vault/internal/domain/subjects"
	"medical-vault/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// DeniedError lleva el código de razón estable que ve el caller.
// El 403 explica "sin grant" vs "scope no cubierto" sin filtrar internals.
type DeniedError struct {
	Reason authz.DenyReason
}

func (e *DeniedError) Error() string {
	return "access denied: " + string(e.Reason)
}

// readLimit acota cuántos registros devuelve una lectura de holder.
const readLimit = 20

// Service es el único punto de entrada por el que un holder toca datos de un
// subject. Contrato: decidir primero, auditar siempre (éxito o denegación), y
// si el evento de auditoría no persiste, fallar la operación completa.
type Service struct {
	engine   *authz.Engine
	grants   *grants.Service
	subjects *subjects.Service
	records  records.Repository
	auditlog *audit.Service
	log      logger.Logger
	now      func() time.Time
}

func NewService(
	engine *authz.Engine,
	grantsSvc *grants.Service,
	subjectsSvc *subjects.Service,
	recordsRepo records.Repository,
	auditlog *audit.Service,
	log logger.Logger,
) *Service {
	return &Service{
		engine:   engine,
		grants:   grantsSvc,
		subjects: subjectsSvc,
		records:  recordsRepo,
		auditlog: auditlog,
		log:      log,
		now:      time.Now,
	}
}

// View es el resultado de un readAs, recortado a los campos otorgados.
type View struct {
	Category      grants.Scope     `json:"category"`
	VisibleFields []string         `json:"visible_fields"`
	Profile       map[string]any   `json:"profile,omitempty"`
	Records       []map[string]any `json:"records,omitempty"`
}

type RecordHandle struct {
	RecordID string `json:"record_id"`
}

// ReadAs: decide, lee, filtra, audita data_viewed, devuelve. Si la auditoría
// falla la vista no se expone aunque la lectura ya haya ocurrido en memoria.
func (s *Service) ReadAs(ctx context.Context, holderID, subjectID string, category grants.Scope) (View, error) {
	holderID = strings.TrimSpace(holderID)
	subjectID = strings.TrimSpace(subjectID)
	if holderID == "" || subjectID == "" {
		return View{}, ErrInvalidInput
	}
	if _, ok := grants.ParseScope(string(category)); !ok {
		return View{}, ErrInvalidInput
	}

	d, err := s.engine.Decide(ctx, subjectID, holderID, category, authz.ActionRead)
	if err != nil {
		return View{}, fmt.Errorf("authz decide: %w", err)
	}

	if !d.Allow {
		if err := s.auditDenied(ctx, subjectID, holderID, category, authz.ActionRead, d.Reason); err != nil {
			return View{}, err
		}
		return View{}, &DeniedError{Reason: d.Reason}
	}

	view := View{Category: category, VisibleFields: d.VisibleFields}

	if category == grants.ScopeProfile {
		sub, err := s.subjects.GetByID(ctx, subjectID)
		if err != nil {
			return View{}, err
		}
		view.Profile = filterFields(sub.Profile.Fields(), d.VisibleFields)
	} else {
		items, err := s.records.ListBySubject(ctx, subjectID, category, readLimit)
		if err != nil {
			return View{}, err
		}
		view.Records = make([]map[string]any, 0, len(items))
		for _, rec := range items {
			view.Records = append(view.Records, filterFields(rec.Fields(), d.VisibleFields))
		}
	}

	err = s.auditlog.Record(ctx, audit.Event{
		SubjectID: subjectID,
		Type:      audit.EventDataViewed,
		ActorType: audit.ActorHolder,
		ActorID:   holderID,
		HolderID:  holderID,
		Details:   map[string]any{"category": string(category)},
		Timestamp: s.now(),
	})
	if err != nil {
		s.log.Error("audit append failed, read not exposed", map[string]any{
			"subject_id": subjectID,
			"holder_id":  holderID,
			"category":   string(category),
		})
		return View{}, err
	}

	return view, nil
}

type WriteInput struct {
	Kind        records.Kind
	Title       string
	Description string
	Amount      *float64
	FileRef     string
	RecordDate  time.Time
}

// WriteAs: decide, arma el registro, audita data_uploaded y recién entonces
// lo commitea. El orden audit-write-then-commit sostiene el fail-closed:
// nunca queda una acción sin registro.
func (s *Service) WriteAs(ctx context.Context, holderID, subjectID string, category grants.Scope, in WriteInput) (RecordHandle, error) {
	holderID = strings.TrimSpace(holderID)
	subjectID = strings.TrimSpace(subjectID)
	if holderID == "" || subjectID == "" {
		return RecordHandle{}, ErrInvalidInput
	}
	if _, ok := grants.ParseScope(string(category)); !ok {
		return RecordHandle{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" {
		return RecordHandle{}, ErrInvalidInput
	}

	kind := in.Kind
	if kind == "" {
		kind = records.KindOther
	} else if _, ok := records.ParseKind(string(kind)); !ok {
		return RecordHandle{}, ErrInvalidInput
	}

	d, err := s.engine.Decide(ctx, subjectID, holderID, category, authz.ActionWrite)
	if err != nil {
		return RecordHandle{}, fmt.Errorf("authz decide: %w", err)
	}

	if !d.Allow {
		if err := s.auditDenied(ctx, subjectID, holderID, category, authz.ActionWrite, d.Reason); err != nil {
			return RecordHandle{}, err
		}
		return RecordHandle{}, &DeniedError{Reason: d.Reason}
	}

	now := s.now()
	recordDate := in.RecordDate
	if recordDate.IsZero() {
		recordDate = now
	}

	rec := records.Record{
		ID:             uuid.NewString(),
		SubjectID:      subjectID,
		Category:       category,
		Kind:           kind,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Amount:         in.Amount,
		FileRef:        strings.TrimSpace(in.FileRef),
		RecordDate:     recordDate,
		UploadedAt:     now,
		UploadedByType: records.UploaderHolder,
		UploadedByID:   holderID,
		HolderID:       holderID,
		Immutable:      true,
	}

	err = s.auditlog.Record(ctx, audit.Event{
		SubjectID: subjectID,
		Type:      audit.EventDataUploaded,
		ActorType: audit.ActorHolder,
		ActorID:   holderID,
		HolderID:  holderID,
		Details: map[string]any{
			"category":  string(category),
			"record_id": rec.ID,
			"kind":      string(kind),
			"title":     rec.Title,
		},
		Timestamp: now,
	})
	if err != nil {
		s.log.Error("audit append failed, upload aborted", map[string]any{
			"subject_id": subjectID,
			"holder_id":  holderID,
			"category":   string(category),
		})
		return RecordHandle{}, err
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return RecordHandle{}, err
	}
	return RecordHandle{RecordID: rec.ID}, nil
}

// PatientAccess es la vista del hospital: a qué subjects llega hoy y con qué alcance.
type PatientAccess struct {
	GrantID   string         `json:"grant_id"`
	MedicalID string         `json:"medical_id"`
	Email     string         `json:"email"`
	Scopes    []grants.Scope `json:"scopes"`
	Mode      grants.Mode    `json:"mode"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ListPatients no toca datos médicos, solo la relación de acceso; por eso no
// genera eventos data_viewed.
func (s *Service) ListPatients(ctx context.Context, holderID string) ([]PatientAccess, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return nil, ErrInvalidInput
	}

	effective, err := s.grants.ListEffectiveByHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}

	out := make([]PatientAccess, 0, len(effective))
	for _, g := range effective {
		sub, err := s.subjects.GetByID(ctx, g.SubjectID)
		if err != nil {
			continue
		}
		out = append(out, PatientAccess{
			GrantID:   g.ID,
			MedicalID: sub.MedicalID,
			Email:     sub.Email,
			Scopes:    g.Scopes,
			Mode:      g.Mode,
			ExpiresAt: g.ExpiresAt,
		})
	}
	return out, nil
}

// auditDenied registra el intento denegado. Intentos repetidos denegados son
// señal de seguridad en sí mismos, así que una denegación también se audita;
// si ni eso persiste, escala como error de persistencia.
func (s *Service) auditDenied(ctx context.Context, subjectID, holderID string, category grants.Scope, action authz.Action, reason authz.DenyReason) error {
	err := s.auditlog.Record(ctx, audit.Event{
		SubjectID: subjectID,
		Type:      audit.EventAccessDenied,
		ActorType: audit.ActorHolder,
		ActorID:   holderID,
		HolderID:  holderID,
		Details: map[string]any{
			"category": string(category),
			"action":   string(action),
			"reason":   string(reason),
		},
		Timestamp: s.now(),
	})
	if err != nil {
		s.log.Error("audit append failed on denial", map[string]any{
			"subject_id": subjectID,
			"holder_id":  holderID,
		})
	}
	return err
}

func filterFields(all map[string]any, visible []string) map[string]any {
	out := make(map[string]any, len(visible))
	for _, f := range visible {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out
}
