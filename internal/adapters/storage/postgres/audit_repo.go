package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"medical-vault/internal/domain/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append inserta el evento y lee el seq que asigna la BIGSERIAL: el
// orden de commit queda grabado aunque dos eventos compartan timestamp.
// No hay UPDATE ni DELETE sobre audit_events.
func (r *AuditRepo) Append(ctx context.Context, e audit.Event) (audit.Event, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return audit.Event{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO audit_events (
			id, subject_id, event_type,
			actor_type, actor_id, holder_id,
			details, ts
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING seq
	`,
		e.ID,
		e.SubjectID,
		string(e.Type),
		string(e.ActorType),
		e.ActorID,
		e.HolderID,
		details,
		e.Timestamp,
	)

	if err := row.Scan(&e.Seq); err != nil {
		return audit.Event{}, err
	}
	return e, nil
}

func (r *AuditRepo) ListBySubject(ctx context.Context, subjectID string, limit int) ([]audit.Event, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, subject_id, event_type,
			actor_type, actor_id, holder_id,
			details, ts, seq
		FROM audit_events
		WHERE subject_id = $1
		ORDER BY ts DESC, seq DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Event, 0)
	for rows.Next() {
		var e audit.Event
		var eventType, actorType string
		var details []byte

		if err := rows.Scan(
			&e.ID,
			&e.SubjectID,
			&eventType,
			&actorType,
			&e.ActorID,
			&e.HolderID,
			&details,
			&e.Timestamp,
			&e.Seq,
		); err != nil {
			return nil, err
		}

		e.Type = audit.EventType(eventType)
		e.ActorType = audit.ActorType(actorType)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}

		out = append(out, e)
	}

	return out, rows.Err()
}
