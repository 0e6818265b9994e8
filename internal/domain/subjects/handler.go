package subjects

import (
	"encoding/json"
	"net/http"
	"time"

	"medical-vault/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/subjects", createSubjectHandler(svc))
	r.Route("/me/profile", func(pr chi.Router) {
		pr.Get("/", getProfileHandler(svc))
		pr.Patch("/", updateProfileHandler(svc))
	})
}

type profilePayload struct {
	BloodGroup               *string `json:"blood_group,omitempty"`
	Allergies                *string `json:"allergies,omitempty"`
	ChronicConditions        *string `json:"chronic_conditions,omitempty"`
	CurrentMedications       *string `json:"current_medications,omitempty"`
	PastSurgeries            *string `json:"past_surgeries,omitempty"`
	Disabilities             *string `json:"disabilities,omitempty"`
	EmergencyContactName     *string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone    *string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelation *string `json:"emergency_contact_relation,omitempty"`
}

type createSubjectRequest struct {
	Email   string         `json:"email"`
	Profile profilePayload `json:"profile"`
}

type subjectResponse struct {
	ID         string    `json:"id"`
	MedicalID  string    `json:"medical_id"`
	Email      string    `json:"email"`
	BloodGroup string    `json:"blood_group,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type profileResponse struct {
	MedicalID string         `json:"medical_id"`
	Email     string         `json:"email"`
	Profile   map[string]any `json:"profile"`
}

// createSubjectHandler godoc
// @Summary Crear cuenta de subject
// @Description Crea la cuenta médica del subject y genera su medical id público (MED-USR-XXXXXXXX). La creación queda auditada.
// @Tags subjects
// @Accept json
// @Produce json
// @Param payload body createSubjectRequest true "Email y perfil inicial"
// @Success 201 {object} subjectResponse
// @Failure 400 {string} string "email inválido"
// @Router /subjects [post]
func createSubjectHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSubjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sub, err := svc.Create(r.Context(), CreateInput{
			Email:   req.Email,
			Profile: profileFromPayload(req.Profile),
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

		writeJSON(w, http.StatusCreated, subjectResponse{
			ID:         sub.ID,
			MedicalID:  sub.MedicalID,
			Email:      sub.Email,
			BloodGroup: sub.Profile.BloodGroup,
			CreatedAt:  sub.CreatedAt,
		})
	}
}

// getProfileHandler godoc
// @Summary Ver perfil médico propio
// @Tags subjects
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Success 200 {object} profileResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /me/profile [get]
func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sub, err := svc.GetByID(r.Context(), claims.ActorID)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, profileResponse{
			MedicalID: sub.MedicalID,
			Email:     sub.Email,
			Profile:   sub.Profile.Fields(),
		})
	}
}

// updateProfileHandler godoc
// @Summary Actualizar perfil médico propio
// @Description Solo el subject muta su perfil; nunca un holder, con o sin grant. El evento profile_updated registra qué campos se tocaron.
// @Tags subjects
// @Accept json
// @Produce json
// @Param X-Debug-Actor-ID header string false "Solo en modo dev, ID del subject"
// @Param payload body profilePayload true "Campos a actualizar (solo los presentes)"
// @Success 200 {object} profileResponse
// @Failure 400 {string} string "sin campos para actualizar"
// @Failure 401 {string} string "unauthorized"
// @Router /me/profile [patch]
func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.SubjectClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req profilePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sub, err := svc.UpdateProfile(r.Context(), claims.ActorID, UpdateProfileInput{
			BloodGroup:               req.BloodGroup,
			Allergies:                req.Allergies,
			ChronicConditions:        req.ChronicConditions,
			CurrentMedications:       req.CurrentMedications,
			PastSurgeries:            req.PastSurgeries,
			Disabilities:             req.Disabilities,
			EmergencyContactName:     req.EmergencyContactName,
			EmergencyContactPhone:    req.EmergencyContactPhone,
			EmergencyContactRelation: req.EmergencyContactRelation,
		})
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

		writeJSON(w, http.StatusOK, profileResponse{
			MedicalID: sub.MedicalID,
			Email:     sub.Email,
			Profile:   sub.Profile.Fields(),
		})
	}
}

func profileFromPayload(p profilePayload) Profile {
	deref := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	return Profile{
		BloodGroup:               deref(p.BloodGroup),
		Allergies:                deref(p.Allergies),
		ChronicConditions:        deref(p.ChronicConditions),
		CurrentMedications:       deref(p.CurrentMedications),
		PastSurgeries:            deref(p.PastSurgeries),
		Disabilities:             deref(p.Disabilities),
		EmergencyContactName:     deref(p.EmergencyContactName),
		EmergencyContactPhone:    deref(p.EmergencyContactPhone),
		EmergencyContactRelation: deref(p.EmergencyContactRelation),
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
