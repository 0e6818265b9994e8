package holders

import "time"

// Holder es un hospital registrado en el directorio. Para el core de
// consentimiento solo importa como destino de grants; credenciales y
// login viven en el IAM externo.
type Holder struct {
	ID string

	// PublicID es el identificador de facility (registro sanitario) que el
	// subject escribe al otorgar acceso.
	PublicID string

	Name  string
	Email string
	Phone string

	Specializations []string

	Verified  bool
	Active    bool
	CreatedAt time.Time
}
