package auth

// ActorType distingue quién firma el request. El core nunca lee estado
// ambiente de sesión: los handlers sacan esto de claims y lo pasan explícito.
type ActorType string

const (
	ActorSubject ActorType = "subject"
	ActorHolder  ActorType = "holder"
)

// Claims representa la información extraída del token.
type Claims struct {
	ActorID   string
	ActorType ActorType
	Email     string
}
