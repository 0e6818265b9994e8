package records

import (
	"time"

	"medical-vault/internal/domain/grants"
)

// Kind clasifica el contenido del registro dentro de su category.
type Kind string

const (
	KindLabReport    Kind = "lab_report"
	KindPrescription Kind = "prescription"
	KindDiagnosis    Kind = "diagnosis"
	KindScan         Kind = "scan"
	KindBill         Kind = "bill"
	KindOther        Kind = "other"
)

func ParseKind(raw string) (Kind, bool) {
	k := Kind(raw)
	switch k {
	case KindLabReport, KindPrescription, KindDiagnosis, KindScan, KindBill, KindOther:
		return k, true
	}
	return "", false
}

type UploaderType string

const (
	UploaderSubject UploaderType = "subject"
	UploaderHolder  UploaderType = "holder"
)

// Record es append-only: se marca inmutable al crearse y ninguna operación
// del core lo modifica ni lo borra. Tombstoned lo oculta de listados
// preservando la historia para auditoría.
type Record struct {
	ID        string
	SubjectID string

	Category grants.Scope
	Kind     Kind

	Title       string
	Description string

	// Amount solo aplica a category=bills.
	Amount *float64

	// FileRef es metadata que entrega el colaborador de file storage;
	// el binario nunca pasa por este core.
	FileRef string

	RecordDate time.Time
	UploadedAt time.Time

	UploadedByType UploaderType
	UploadedByID   string
	HolderID       string // vacío si subió el subject

	Immutable  bool
	Tombstoned bool
}

// Fields expone el registro como mapa para el filtrado por campos visibles.
func (r Record) Fields() map[string]any {
	out := map[string]any{
		"id":               r.ID,
		"category":         string(r.Category),
		"kind":             string(r.Kind),
		"title":            r.Title,
		"description":      r.Description,
		"record_date":      r.RecordDate,
		"uploaded_at":      r.UploadedAt,
		"uploaded_by_type": string(r.UploadedByType),
		"file_ref":         r.FileRef,
	}
	if r.Amount != nil {
		out["amount"] = *r.Amount
	}
	return out
}
