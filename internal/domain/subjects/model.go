package subjects

import "time"

// Profile son los atributos médicos del subject. Solo el propio subject
// los muta; los holders los ven filtrados por el scope "profile".
type Profile struct {
	BloodGroup               string
	Allergies                string
	ChronicConditions        string
	CurrentMedications       string
	PastSurgeries            string
	Disabilities             string
	EmergencyContactName     string
	EmergencyContactPhone    string
	EmergencyContactRelation string
}

// Fields expone el profile como mapa con las keys que usa la tabla de
// campos visibles del motor de autorización.
func (p Profile) Fields() map[string]any {
	return map[string]any{
		"blood_group":                p.BloodGroup,
		"allergies":                  p.Allergies,
		"chronic_conditions":         p.ChronicConditions,
		"current_medications":        p.CurrentMedications,
		"past_surgeries":             p.PastSurgeries,
		"disabilities":               p.Disabilities,
		"emergency_contact_name":     p.EmergencyContactName,
		"emergency_contact_phone":    p.EmergencyContactPhone,
		"emergency_contact_relation": p.EmergencyContactRelation,
	}
}

type Subject struct {
	ID string

	// MedicalID es el identificador público (formato MED-USR-XXXXXXXX)
	// con el que los hospitales referencian al subject.
	MedicalID string
	Email     string

	Profile Profile

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
