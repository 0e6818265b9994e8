package grants

import "time"

// Scope es el conjunto cerrado de categorías de datos que un subject
// puede compartir con un hospital.
type Scope string

const (
	ScopeProfile       Scope = "profile"
	ScopeRecords       Scope = "records"
	ScopeBills         Scope = "bills"
	ScopeInsurance     Scope = "insurance"
	ScopePrescriptions Scope = "prescriptions"
	ScopeLabResults    Scope = "lab_results"
	ScopeAllergies     Scope = "allergies"
	ScopeAppointments  Scope = "appointments"
)

// Mode define qué puede hacer el holder dentro de sus scopes.
// upload_allowed permite crear registros nuevos; nunca modificar/borrar existentes.
type Mode string

const (
	ModeReadOnly      Mode = "read_only"
	ModeUploadAllowed Mode = "upload_allowed"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// FarFuture es el sentinel para "hasta que se revoque".
// ExpiresAt nunca es null; un grant sin vencimiento usa esta fecha concreta.
var FarFuture = time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)

type Grant struct {
	ID string

	SubjectID string // dueño de los datos
	HolderID  string // hospital

	Scopes []Scope
	Mode   Mode
	Status Status

	GrantedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// ExpiredAt: la expiración es condición derivada, no almacenada.
func (g Grant) ExpiredAt(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

// EffectiveAt: active Y no expirado. Es lo único que consulta el motor de autorización.
func (g Grant) EffectiveAt(now time.Time) bool {
	return g.Status == StatusActive && !g.ExpiredAt(now)
}

// UntilRevoked indica si el grant usa el sentinel de "hasta revocar".
func (g Grant) UntilRevoked() bool {
	return g.ExpiresAt.Equal(FarFuture)
}

// HasScope valida si el grant incluye un scope.
func HasScope(g Grant, scope Scope) bool {
	for _, s := range g.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ParseScope valida un scope contra el conjunto cerrado.
func ParseScope(raw string) (Scope, bool) {
	s := Scope(raw)
	switch s {
	case ScopeProfile, ScopeRecords, ScopeBills, ScopeInsurance,
		ScopePrescriptions, ScopeLabResults, ScopeAllergies, ScopeAppointments:
		return s, true
	}
	return "", false
}
