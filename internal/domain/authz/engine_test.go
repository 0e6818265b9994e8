package authz

import (
	"context"
	"errors"
	"testing"

	"medical-vault/internal/domain/grants"
)

func grantWith(mode grants.Mode, scopes ...grants.Scope) grants.Grant {
	return grants.Grant{
		ID:     "g-" + string(mode),
		Scopes: scopes,
		Mode:   mode,
		Status: grants.StatusActive,
	}
}

func TestEvaluate_NoGrants_NoActiveGrant(t *testing.T) {
	for _, action := range []Action{ActionRead, ActionWrite} {
		d := Evaluate(nil, grants.ScopeRecords, action)
		if d.Allow {
			t.Fatalf("%s: expected deny", action)
		}
		if d.Reason != ReasonNoActiveGrant {
			t.Fatalf("%s: expected no_active_grant, got %s", action, d.Reason)
		}
	}
}

func TestEvaluate_Read_UnionOfScopes(t *testing.T) {
	effective := []grants.Grant{
		grantWith(grants.ModeReadOnly, grants.ScopeProfile),
		grantWith(grants.ModeReadOnly, grants.ScopeLabResults),
	}

	if d := Evaluate(effective, grants.ScopeLabResults, ActionRead); !d.Allow {
		t.Fatalf("expected allow via union, got deny %s", d.Reason)
	}
	if d := Evaluate(effective, grants.ScopeBills, ActionRead); d.Allow || d.Reason != ReasonScopeNotGranted {
		t.Fatalf("expected scope_not_granted outside union, got %#v", d)
	}
}

func TestEvaluate_Write_RequiresSingleQualifyingGrant(t *testing.T) {
	// Grant A: bills, solo lectura. Grant B: records, con upload.
	// La unión cubre bills, pero ningún grant individual habilita
	// escribir bills: el permiso de escritura no se sintetiza cruzando grants.
	effective := []grants.Grant{
		grantWith(grants.ModeReadOnly, grants.ScopeBills),
		grantWith(grants.ModeUploadAllowed, grants.ScopeRecords),
	}

	if d := Evaluate(effective, grants.ScopeBills, ActionWrite); d.Allow || d.Reason != ReasonScopeNotGranted {
		t.Fatalf("expected write to bills denied, got %#v", d)
	}
	if d := Evaluate(effective, grants.ScopeRecords, ActionWrite); !d.Allow {
		t.Fatalf("expected write to records allowed, got deny %s", d.Reason)
	}
	// Las lecturas sí usan la unión.
	if d := Evaluate(effective, grants.ScopeBills, ActionRead); !d.Allow {
		t.Fatalf("expected read of bills allowed, got deny %s", d.Reason)
	}
}

func TestEvaluate_Write_ReadOnlyMode_Denied(t *testing.T) {
	effective := []grants.Grant{
		grantWith(grants.ModeReadOnly, grants.ScopeRecords),
	}

	d := Evaluate(effective, grants.ScopeRecords, ActionWrite)
	if d.Allow {
		t.Fatalf("expected deny for read_only grant")
	}
	if d.Reason != ReasonScopeNotGranted {
		t.Fatalf("expected scope_not_granted, got %s", d.Reason)
	}
}

func TestEvaluate_Allow_CarriesVisibleFields(t *testing.T) {
	effective := []grants.Grant{
		grantWith(grants.ModeReadOnly, grants.ScopeProfile, grants.ScopeBills),
	}

	d := Evaluate(effective, grants.ScopeProfile, ActionRead)
	if !d.Allow {
		t.Fatalf("expected allow, got %s", d.Reason)
	}
	if !containsField(d.VisibleFields, "blood_group") {
		t.Fatalf("expected profile fields to include blood_group, got %v", d.VisibleFields)
	}
	if containsField(d.VisibleFields, "amount") {
		t.Fatalf("profile view must not include amount")
	}

	d = Evaluate(effective, grants.ScopeBills, ActionRead)
	if !containsField(d.VisibleFields, "amount") {
		t.Fatalf("expected bills fields to include amount, got %v", d.VisibleFields)
	}
}

func containsField(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}

// -------------------------
// Engine.Decide
// -------------------------

type staticLister struct {
	grants []grants.Grant
	err    error
}

func (l staticLister) ListEffective(ctx context.Context, subjectID, holderID string) ([]grants.Grant, error) {
	return l.grants, l.err
}

func TestEngine_Decide_BlankActors_FailClosed(t *testing.T) {
	e := NewEngine(staticLister{grants: []grants.Grant{
		grantWith(grants.ModeReadOnly, grants.ScopeRecords),
	}})

	d, err := e.Decide(context.Background(), "  ", "hold-1", grants.ScopeRecords, ActionRead)
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if d.Allow || d.Reason != ReasonNoActiveGrant {
		t.Fatalf("expected deny no_active_grant for blank subject, got %#v", d)
	}
}

func TestEngine_Decide_ListerError_Propagates(t *testing.T) {
	boom := errors.New("storage down")
	e := NewEngine(staticLister{err: boom})

	_, err := e.Decide(context.Background(), "sub-1", "hold-1", grants.ScopeRecords, ActionRead)
	if !errors.Is(err, boom) {
		t.Fatalf("expected lister error to propagate, got %v", err)
	}
}
