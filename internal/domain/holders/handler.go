package holders

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/holders", registerHolderHandler(svc))
	r.Get("/holders/{publicID}", getHolderHandler(svc))
}

type registerHolderRequest struct {
	PublicID        string   `json:"public_id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Specializations []string `json:"specializations"`
}

type holderResponse struct {
	ID              string    `json:"id"`
	PublicID        string    `json:"public_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Specializations []string  `json:"specializations,omitempty"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// registerHolderHandler godoc
// @Summary Registrar un hospital en el directorio
// @Description Alta mínima del directorio de holders: credenciales y login viven en el IAM externo, acá solo lo necesario para resolver grants.
// @Tags holders
// @Accept json
// @Produce json
// @Param payload body registerHolderRequest true "Datos del hospital"
// @Success 201 {object} holderResponse
// @Failure 400 {string} string "public_id/name requeridos o public_id duplicado"
// @Router /holders [post]
func registerHolderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerHolderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		h, err := svc.Register(r.Context(), RegisterInput{
			PublicID:        req.PublicID,
			Name:            req.Name,
			Email:           req.Email,
			Phone:           req.Phone,
			Specializations: req.Specializations,
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

		writeJSON(w, http.StatusCreated, toHolderResponse(h))
	}
}

// getHolderHandler godoc
// @Summary Resolver un hospital por su facility id público
// @Tags holders
// @Produce json
// @Param publicID path string true "Facility id público"
// @Success 200 {object} holderResponse
// @Failure 404 {string} string "not found"
// @Router /holders/{publicID} [get]
func getHolderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := svc.ResolveByPublicID(r.Context(), chi.URLParam(r, "publicID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toHolderResponse(h))
	}
}

func toHolderResponse(h Holder) holderResponse {
	return holderResponse{
		ID:              h.ID,
		PublicID:        h.PublicID,
		Name:            h.Name,
		Email:           h.Email,
		Phone:           h.Phone,
		Specializations: h.Specializations,
		Verified:        h.Verified,
		CreatedAt:       h.CreatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
