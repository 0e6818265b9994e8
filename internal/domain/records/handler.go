package records

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medical-vault/internal/domain/grants"
	"medical-vault/internal/middleware"
	"medical-vault/internal/ports/filestore"

	"github.com/go-chi/chi/v5"
)

// files puede ser nil (modo dev): entonces el caller manda file_ref directo.
func RegisterRoutes(r chi.Router, svc *Service, files filestore.Store) {
	r.Route("/me/records", func(rr chi.Router) {
		rr.Get("/", listRecordsHandler(svc))
		rr.Post("/", createRecordHandler(svc, files))
		rr.Post("/{recordID}/tombstone", tombstoneRecordHandler(svc))
	})
}

type createRecordRequest struct {
	Category    grants.Scope `json:"category"`
	Kind        Kind         `json:"kind" enums:"lab_report,prescription,diagnosis,scan,bill,other"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Amount      *float64     `json:"amount,omitempty"`
	RecordDate  string       `json:"record_date"` // RFC3339, opcional
	FileRef     string       `json:"file_ref,omitempty"`
	FileToken   string       `json:"file_token,omitempty"` // token del servicio de archivos
}

type recordResponse struct {
	ID             string       `json:"id"`
	Category       grants.Scope `json:"category"`
	Kind           Kind         `json:"kind"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Amount         *float64     `json:"amount,omitempty"`
	FileRef        string       `json:"file_ref,omitempty"`
	RecordDate     time.Time    `json:"record_date"`
	UploadedAt     time.Time    `json:"uploaded_at"`
	UploadedByType UploaderType `json:"uploaded_by_type"`
	Tombstoned     bool         `json:"tombstoned,omitempty"`
}

// listRecordsHandler godoc
// @Summary Listar registros propios
// @Tags records
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Param category query string false "Filtrar por category (scope)"
// @Param limit query int false "Máximo de registros. Por defecto 50"
// @Success 200 {array} recordResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		category := grants.Scope(strings.TrimSpace(r.URL.Query().Get("category")))
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		items, err := svc.ListBySubject(r.Context(), claims.ActorID, category, limit)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createRecordHandler godoc
// @Summary Subir un registro propio
// @Description El subject crea un registro en cualquier category salvo profile (el perfil se edita por PATCH /me/profile). Si viene file_token, se resuelve la metadata contra el servicio de archivos; el binario nunca pasa por este servicio.
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Param payload body createRecordRequest true "Datos del registro"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "category/kind inválidos o title vacío"
// @Failure 401 {string} string "unauthorized"
// @Router /me/records [post]
func createRecordHandler(svc *Service, files filestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		fileRef := strings.TrimSpace(req.FileRef)
		if token := strings.TrimSpace(req.FileToken); token != "" {
			if files == nil {
				http.Error(w, "file storage not configured", http.StatusBadRequest)
				return
			}
			meta, err := files.Describe(r.Context(), token)
			if err != nil {
				http.Error(w, "file_token could not be resolved", http.StatusBadRequest)
				return
			}
			fileRef = meta.Ref
		}

		var recordDate time.Time
		if v := strings.TrimSpace(req.RecordDate); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "record_date must be RFC3339", http.StatusBadRequest)
				return
			}
			recordDate = t
		}

		rec, err := svc.Create(r.Context(), claims.ActorID, CreateInput{
			Category:    req.Category,
			Kind:        req.Kind,
			Title:       req.Title,
			Description: req.Description,
			Amount:      req.Amount,
			FileRef:     fileRef,
			RecordDate:  recordDate,
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

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// tombstoneRecordHandler godoc
// @Summary Ocultar (tombstone) un registro propio
// @Description Oculta el registro de los listados sin borrarlo: la historia se preserva para auditoría. Idempotente.
// @Tags records
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Param recordID path string true "ID del registro"
// @Success 200 {object} recordResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /me/records/{recordID}/tombstone [post]
func tombstoneRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rec, err := svc.Tombstone(r.Context(), chi.URLParam(r, "recordID"), claims.ActorID)
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

		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:             rec.ID,
		Category:       rec.Category,
		Kind:           rec.Kind,
		Title:          rec.Title,
		Description:    rec.Description,
		Amount:         rec.Amount,
		FileRef:        rec.FileRef,
		RecordDate:     rec.RecordDate,
		UploadedAt:     rec.UploadedAt,
		UploadedByType: rec.UploadedByType,
		Tombstoned:     rec.Tombstoned,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
