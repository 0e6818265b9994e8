package authz

import (
	"context"
	"strings"

	"medical-vault/internal/domain/grants"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// DenyReason es un código estable para el caller/UI, nunca un error interno crudo.
type DenyReason string

const (
	ReasonNoActiveGrant   DenyReason = "no_active_grant"
	ReasonScopeNotGranted DenyReason = "scope_not_granted"
)

type Decision struct {
	Allow         bool
	VisibleFields []string   // solo cuando Allow
	Reason        DenyReason // solo cuando !Allow
}

func allow(category grants.Scope) Decision {
	return Decision{Allow: true, VisibleFields: VisibleFields(category)}
}

func deny(reason DenyReason) Decision {
	return Decision{Allow: false, Reason: reason}
}

// Evaluate es la función de decisión pura: recibe los grants vigentes
// (status=active y no expirados) y decide sin tocar storage ni reloj.
//
// Reglas:
//   - sin grants vigentes => no_active_grant
//   - category fuera de la unión de scopes => scope_not_granted
//   - read: la unión de scopes alcanza
//   - write: exige UN grant que simultáneamente tenga mode=upload_allowed
//     y cubra la category en sus propios scopes. La unión no aplica a writes:
//     un grant angosto read_only más otro amplio upload_allowed no pueden
//     combinarse para sintetizar permiso de escritura.
func Evaluate(effective []grants.Grant, category grants.Scope, action Action) Decision {
	if len(effective) == 0 {
		return deny(ReasonNoActiveGrant)
	}

	inUnion := false
	for _, g := range effective {
		if grants.HasScope(g, category) {
			inUnion = true
			break
		}
	}
	if !inUnion {
		return deny(ReasonScopeNotGranted)
	}

	if action == ActionWrite {
		// Cualquier grant calificante alcanza; no hace falta elegir uno.
		for _, g := range effective {
			if g.Mode == grants.ModeUploadAllowed && grants.HasScope(g, category) {
				return allow(category)
			}
		}
		return deny(ReasonScopeNotGranted)
	}

	return allow(category)
}

// EffectiveLister evita importar el Service de grants completo.
type EffectiveLister interface {
	ListEffective(ctx context.Context, subjectID, holderID string) ([]grants.Grant, error)
}

type Engine struct {
	grants EffectiveLister
}

func NewEngine(lister EffectiveLister) *Engine {
	return &Engine{grants: lister}
}

// Decide trae el snapshot de grants vigentes y evalúa. Un grant que expira
// entre el listado y la ejecución es una carrera benigna aceptada: el request
// en vuelo completa, el siguiente re-evalúa y deniega.
func (e *Engine) Decide(ctx context.Context, subjectID, holderID string, category grants.Scope, action Action) (Decision, error) {
	subjectID = strings.TrimSpace(subjectID)
	holderID = strings.TrimSpace(holderID)
	if subjectID == "" || holderID == "" {
		return deny(ReasonNoActiveGrant), nil
	}

	effective, err := e.grants.ListEffective(ctx, subjectID, holderID)
	if err != nil {
		return Decision{}, err
	}

	return Evaluate(effective, category, action), nil
}
