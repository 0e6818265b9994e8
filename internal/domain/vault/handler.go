package vault

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medical-vault/internal/domain/grants"
	"medical-vault/internal/domain/records"
	"medical-vault/internal/domain/subjects"
	"medical-vault/internal/middleware"
	"medical-vault/internal/ports/filestore"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, subjectsSvc *subjects.Service, files filestore.Store) {
	r.Route("/vault", func(vr chi.Router) {
		vr.Get("/patients", listPatientsHandler(svc))
		vr.Get("/{medicalID}/{category}", readAsHandler(svc, subjectsSvc))
		vr.Post("/{medicalID}/{category}", writeAsHandler(svc, subjectsSvc, files))
	})
}

type deniedResponse struct {
	Denied bool   `json:"denied"`
	Reason string `json:"reason"`
}

type uploadRequest struct {
	Kind        records.Kind `json:"kind" enums:"lab_report,prescription,diagnosis,scan,bill,other"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Amount      *float64     `json:"amount,omitempty"`
	RecordDate  string       `json:"record_date"` // RFC3339, opcional
	FileRef     string       `json:"file_ref,omitempty"`
	FileToken   string       `json:"file_token,omitempty"`
}

// listPatientsHandler godoc
// @Summary Pacientes con acceso vigente
// @Description Subjects sobre los que el hospital tiene grants vigentes hoy, con alcance y vencimiento. No toca datos médicos, así que no genera data_viewed.
// @Tags vault
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del holder"
// @Param X-Debug-Actor-Type header string false "holder"
// @Success 200 {array} PatientAccess
// @Failure 401 {string} string "unauthorized"
// @Router /vault/patients [get]
func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.HolderClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListPatients(r.Context(), claims.ActorID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// readAsHandler godoc
// @Summary Leer datos de un paciente (holder)
// @Description Único punto de lectura de datos ajenos. El motor decide contra los grants vigentes; la respuesta viene recortada a los campos del scope. Éxito o denegación, siempre queda un evento de auditoría; si el evento no persiste, el request falla completo.
// @Tags vault
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del holder"
// @Param X-Debug-Actor-Type header string false "holder"
// @Param medicalID path string true "Medical id público del paciente"
// @Param category path string true "Scope a leer (profile, records, bills, ...)"
// @Success 200 {object} View
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {object} deniedResponse "no_active_grant | scope_not_granted"
// @Failure 404 {string} string "patient not found"
// @Router /vault/{medicalID}/{category} [get]
func readAsHandler(svc *Service, subjectsSvc *subjects.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.HolderClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sub, category, ok := resolveTarget(w, r, subjectsSvc)
		if !ok {
			return
		}

		view, err := svc.ReadAs(r.Context(), claims.ActorID, sub.ID, category)
		if err != nil {
			writeVaultError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// writeAsHandler godoc
// @Summary Subir un registro para un paciente (holder)
// @Description Requiere un único grant vigente que cubra la category Y tenga mode=upload_allowed (la unión de scopes no sintetiza permiso de escritura). El registro nace inmutable; el evento data_uploaded se persiste antes del commit.
// @Tags vault
// @Accept json
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del holder"
// @Param X-Debug-Actor-Type header string false "holder"
// @Param medicalID path string true "Medical id público del paciente"
// @Param category path string true "Scope destino"
// @Param payload body uploadRequest true "Datos del registro"
// @Success 201 {object} RecordHandle
// @Failure 400 {string} string "payload inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {object} deniedResponse "no_active_grant | scope_not_granted"
// @Failure 404 {string} string "patient not found"
// @Router /vault/{medicalID}/{category} [post]
func writeAsHandler(svc *Service, subjectsSvc *subjects.Service, files filestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.HolderClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sub, category, ok := resolveTarget(w, r, subjectsSvc)
		if !ok {
			return
		}

		var req uploadRequest
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

		handle, err := svc.WriteAs(r.Context(), claims.ActorID, sub.ID, category, WriteInput{
			Kind:        req.Kind,
			Title:       req.Title,
			Description: req.Description,
			Amount:      req.Amount,
			FileRef:     fileRef,
			RecordDate:  recordDate,
		})
		if err != nil {
			writeVaultError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, handle)
	}
}

// resolveTarget valida medicalID y category antes de decidir. Un paciente
// inexistente es 404 sin evento: no hubo subject contra quien auditar.
func resolveTarget(w http.ResponseWriter, r *http.Request, subjectsSvc *subjects.Service) (subjects.Subject, grants.Scope, bool) {
	medicalID := chi.URLParam(r, "medicalID")

	category, ok := grants.ParseScope(strings.TrimSpace(chi.URLParam(r, "category")))
	if !ok {
		http.Error(w, "unknown category", http.StatusBadRequest)
		return subjects.Subject{}, "", false
	}

	sub, err := subjectsSvc.GetByMedicalID(r.Context(), medicalID)
	if err != nil {
		http.Error(w, "patient not found", http.StatusNotFound)
		return subjects.Subject{}, "", false
	}
	return sub, category, true
}

func writeVaultError(w http.ResponseWriter, err error) {
	var denied *DeniedError
	switch {
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, deniedResponse{Denied: true, Reason: string(denied.Reason)})
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		// Incluye fallas de auditoría: el caller ve una falla genérica,
		// nunca datos parciales sin registro.
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
