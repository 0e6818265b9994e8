package audit

import "time"

type EventType string

const (
	EventAccessGranted  EventType = "access_granted"
	EventAccessRevoked  EventType = "access_revoked"
	EventDataViewed     EventType = "data_viewed"
	EventDataUploaded   EventType = "data_uploaded"
	EventProfileUpdated EventType = "profile_updated"
	EventLogin          EventType = "login"
	EventAccessDenied   EventType = "access_denied"
)

type ActorType string

const (
	ActorSubject ActorType = "subject"
	ActorHolder  ActorType = "holder"
	ActorSystem  ActorType = "system"
)

// Event es inmutable: se crea exactamente una vez por acción privilegiada
// (éxito o denegación) y nunca se modifica ni se borra.
type Event struct {
	ID        string
	SubjectID string

	Type      EventType
	ActorType ActorType
	ActorID   string
	HolderID  string // vacío cuando no hay hospital involucrado

	Details map[string]any

	Timestamp time.Time

	// Seq lo asigna el storage en orden de commit. Desempata timestamps
	// iguales (resolución de milisegundos) en las consultas.
	Seq uint64
}
