package authz

import "medical-vault/internal/domain/grants"

// visibleFields declara qué atributos expone cada category.
// profile expone solo los campos médicos enumerados, nunca la identidad
// completa del subject; el resto son categorías de registros con los
// atributos del registro.
var visibleFields = map[grants.Scope][]string{
	grants.ScopeProfile: {
		"blood_group",
		"allergies",
		"chronic_conditions",
		"current_medications",
		"past_surgeries",
		"disabilities",
		"emergency_contact_name",
		"emergency_contact_phone",
		"emergency_contact_relation",
	},
	grants.ScopeRecords:       recordFields,
	grants.ScopeBills:         append(append([]string{}, recordFields...), "amount"),
	grants.ScopeInsurance:     recordFields,
	grants.ScopePrescriptions: recordFields,
	grants.ScopeLabResults:    recordFields,
	grants.ScopeAllergies:     recordFields,
	grants.ScopeAppointments:  recordFields,
}

var recordFields = []string{
	"id",
	"category",
	"kind",
	"title",
	"description",
	"record_date",
	"uploaded_at",
	"uploaded_by_type",
	"file_ref",
}

// VisibleFields devuelve una copia para que el caller no mute la tabla.
func VisibleFields(category grants.Scope) []string {
	fields, ok := visibleFields[category]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}
