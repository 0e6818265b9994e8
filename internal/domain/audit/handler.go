package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"medical-vault/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me/audit", queryAuditHandler(svc))
}

type eventResponse struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"event_type"`
	ActorType ActorType      `json:"actor_type"`
	ActorID   string         `json:"actor_id"`
	HolderID  string         `json:"holder_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// queryAuditHandler godoc
// @Summary Consultar el audit trail propio
// @Description Vista de transparencia del subject: todos los accesos y mutaciones sobre sus datos, más reciente primero. Esta lectura no genera eventos propios.
// @Tags audit
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Param limit query int false "Máximo de eventos (1-500). Por defecto 100"
// @Success 200 {array} eventResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/audit [get]
func queryAuditHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		items, err := svc.Query(r.Context(), claims.ActorID, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, eventResponse{
				ID:        e.ID,
				Type:      e.Type,
				ActorType: e.ActorType,
				ActorID:   e.ActorID,
				HolderID:  e.HolderID,
				Details:   e.Details,
				Timestamp: e.Timestamp,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
