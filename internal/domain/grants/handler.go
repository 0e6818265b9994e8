package grants

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medical-vault/internal/domain/holders"
	"medical-vault/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, holdersSvc *holders.Service) {
	r.Route("/me/grants", func(gr chi.Router) {
		gr.Post("/", createGrantHandler(svc, holdersSvc))
		gr.Get("/", listGrantsHandler(svc))
		gr.Post("/{grantID}/revoke", revokeGrantHandler(svc))
	})
}

type createGrantRequest struct {
	HolderPublicID string  `json:"holder_public_id"`
	Scopes         []Scope `json:"scopes"`
	Mode           Mode    `json:"mode" enums:"read_only,upload_allowed"`
	Duration       string  `json:"duration"` // "30d" (días) o "until_revoked"
}

type grantResponse struct {
	ID           string     `json:"id"`
	HolderID     string     `json:"holder_id"`
	Scopes       []Scope    `json:"scopes"`
	Mode         Mode       `json:"mode"`
	Status       Status     `json:"status"`
	GrantedAt    time.Time  `json:"granted_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	UntilRevoked bool       `json:"until_revoked"`
	IsExpired    bool       `json:"is_expired"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// createGrantHandler godoc
// @Summary Otorgar acceso a un hospital
// @Description El subject otorga a un hospital (resuelto por su facility id público) acceso parcial a sus datos. Scopes del conjunto cerrado, mode read_only|upload_allowed, duration "Nd" en días o "until_revoked". Cada grant es una fila nueva, independiente y revocable por separado.
// @Tags grants
// @Accept json
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Param payload body createGrantRequest true "Datos del grant"
// @Success 201 {object} grantResponse
// @Failure 400 {string} string "scopes vacíos / hospital desconocido / duration inválida"
// @Failure 401 {string} string "unauthorized"
// @Router /me/grants [post]
func createGrantHandler(svc *Service, holdersSvc *holders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		h, err := holdersSvc.ResolveByPublicID(r.Context(), req.HolderPublicID)
		if err != nil {
			http.Error(w, "holder not found", http.StatusBadRequest)
			return
		}

		days, untilRevoked, ok := parseDuration(req.Duration)
		if !ok {
			http.Error(w, "duration must be \"<days>d\" or \"until_revoked\"", http.StatusBadRequest)
			return
		}

		g, err := svc.Create(r.Context(), CreateInput{
			SubjectID:    claims.ActorID,
			HolderID:     h.ID,
			Scopes:       req.Scopes,
			Mode:         req.Mode,
			DurationDays: days,
			UntilRevoked: untilRevoked,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toGrantResponse(g, time.Now()))
	}
}

// listGrantsHandler godoc
// @Summary Listar grants del subject
// @Description Devuelve los grants con status=active, incluyendo los ya expirados con is_expired=true: "expirado pero no revocado" debe ser visible, no desaparecer en silencio.
// @Tags grants
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Success 200 {array} grantResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/grants [get]
func listGrantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListActive(r.Context(), claims.ActorID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := time.Now()
		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrantResponse(g, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revokeGrantHandler godoc
// @Summary Revocar un grant
// @Description Revoca un grant propio. Idempotente: revocar dos veces devuelve el mismo estado final sin error. Un grant ajeno responde 404 (el ownership check no revela ids de otros).
// @Tags grants
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Param grantID path string true "ID del grant"
// @Success 200 {object} grantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /me/grants/{grantID}/revoke [post]
func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grantID := chi.URLParam(r, "grantID")
		g, err := svc.Revoke(r.Context(), grantID, claims.ActorID)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g, time.Now()))
	}
}

func toGrantResponse(g Grant, now time.Time) grantResponse {
	return grantResponse{
		ID:           g.ID,
		HolderID:     g.HolderID,
		Scopes:       g.Scopes,
		Mode:         g.Mode,
		Status:       g.Status,
		GrantedAt:    g.GrantedAt,
		ExpiresAt:    g.ExpiresAt,
		UntilRevoked: g.UntilRevoked(),
		IsExpired:    g.ExpiredAt(now),
		RevokedAt:    g.RevokedAt,
	}
}

// parseDuration acepta "30d", "30" o "until_revoked".
func parseDuration(raw string) (days int, untilRevoked bool, ok bool) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return 0, false, false
	}
	if raw == "until_revoked" {
		return 0, true, true
	}
	raw = strings.TrimSuffix(raw, "d")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false, false
	}
	return n, false, true
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
