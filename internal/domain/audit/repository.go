package audit

import "context"

type Repository interface {
	// Append persiste el evento y devuelve la copia con Seq asignado.
	// Es la única escritura: no existe update ni delete.
	Append(ctx context.Context, e Event) (Event, error)

	// ListBySubject devuelve eventos del subject, más reciente primero
	// (timestamp desc, seq desc), acotado por limit.
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]Event, error)
}
