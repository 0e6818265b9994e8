package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"medical-vault/internal/platform/logger"
	"medical-vault/internal/router"
)

func TestHTTP_EndToEnd_ConsentLifecycle(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil, // modo dev
		Logger:       logger.Nop(),
	}))
	defer ts.Close()

	// 1) Paciente crea su cuenta médica
	subjectID, medicalID := createSubject(t, ts.URL, map[string]any{
		"email": "pat@example.com",
		"profile": map[string]any{
			"blood_group": "A-",
			"allergies":   "penicillin",
		},
	})

	// 2) Hospital se registra en el directorio
	holderID := createHolder(t, ts.URL, map[string]any{
		"public_id": "HOSP-9001",
		"name":      "Clínica Central",
	})

	// 3) Sin grant, el hospital no ve nada
	{
		st, body := doReq(t, ts.URL, "GET", "/vault/"+medicalID+"/profile", holderID, "holder", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before grant, got %d body=%s", st, string(body))
		}
		var resp struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Reason != "no_active_grant" {
			t.Fatalf("expected reason no_active_grant, got %q", resp.Reason)
		}
	}

	// 4) Paciente otorga profile + lab_results, solo lectura, 30 días
	grantID := createGrant(t, ts.URL, subjectID, map[string]any{
		"holder_public_id": "HOSP-9001",
		"scopes":           []string{"profile", "lab_results"},
		"mode":             "read_only",
		"duration":         "30d",
	})

	// 5) Hospital ve el perfil, recortado a campos médicos
	{
		st, body := doReq(t, ts.URL, "GET", "/vault/"+medicalID+"/profile", holderID, "holder", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 profile read, got %d body=%s", st, string(body))
		}
		var view struct {
			Profile map[string]any `json:"profile"`
		}
		_ = json.Unmarshal(body, &view)
		if view.Profile["blood_group"] != "A-" {
			t.Fatalf("expected blood_group in view, body=%s", string(body))
		}
		if _, leaked := view.Profile["email"]; leaked {
			t.Fatalf("email leaked to holder view: %s", string(body))
		}
	}

	// 6) Scope no otorgado => 403 scope_not_granted
	{
		st, body := doReq(t, ts.URL, "GET", "/vault/"+medicalID+"/bills", holderID, "holder", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for bills, got %d body=%s", st, string(body))
		}
		var resp struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Reason != "scope_not_granted" {
			t.Fatalf("expected reason scope_not_granted, got %q", resp.Reason)
		}
	}

	// 7) Grant read_only no habilita subir
	{
		st, _ := doReq(t, ts.URL, "POST", "/vault/"+medicalID+"/lab_results", holderID, "holder", map[string]any{
			"kind":  "lab_report",
			"title": "CBC",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 upload with read_only grant, got %d", st)
		}
	}

	// 8) El hospital aparece con el paciente en su listado
	{
		st, body := doReq(t, ts.URL, "GET", "/vault/patients", holderID, "holder", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list patients, got %d body=%s", st, string(body))
		}
		var items []struct {
			MedicalID string `json:"medical_id"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].MedicalID != medicalID {
			t.Fatalf("expected patient %s in listing, body=%s", medicalID, string(body))
		}
	}

	// 9) Paciente revoca
	{
		st, body := doReq(t, ts.URL, "POST", "/me/grants/"+grantID+"/revoke", subjectID, "subject", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke, got %d body=%s", st, string(body))
		}
	}

	// 10) Acceso muere inmediatamente
	{
		st, body := doReq(t, ts.URL, "GET", "/vault/"+medicalID+"/profile", holderID, "holder", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 after revoke, got %d", st)
		}
		var resp struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Reason != "no_active_grant" {
			t.Fatalf("expected reason no_active_grant after revoke, got %q", resp.Reason)
		}
	}

	// 11) El historial del paciente registró todo el ciclo
	{
		st, body := doReq(t, ts.URL, "GET", "/me/audit", subjectID, "subject", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 audit, got %d body=%s", st, string(body))
		}
		var events []struct {
			Type string `json:"event_type"`
		}
		_ = json.Unmarshal(body, &events)

		want := map[string]bool{
			"access_granted": false,
			"data_viewed":    false,
			"access_denied":  false,
			"access_revoked": false,
		}
		for _, e := range events {
			if _, ok := want[e.Type]; ok {
				want[e.Type] = true
			}
		}
		for typ, seen := range want {
			if !seen {
				t.Fatalf("expected %s in audit trail, body=%s", typ, string(body))
			}
		}
	}
}

func TestHTTP_UploadGrant_AllowsWrite_ThenSubjectSeesRecord(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil,
		Logger:       logger.Nop(),
	}))
	defer ts.Close()

	subjectID, medicalID := createSubject(t, ts.URL, map[string]any{
		"email": "pat2@example.com",
	})
	holderID := createHolder(t, ts.URL, map[string]any{
		"public_id": "HOSP-9002",
		"name":      "Laboratorio Sur",
	})
	createGrant(t, ts.URL, subjectID, map[string]any{
		"holder_public_id": "HOSP-9002",
		"scopes":           []string{"lab_results"},
		"mode":             "upload_allowed",
		"duration":         "until_revoked",
	})

	// Hospital sube un resultado
	var recordID string
	{
		st, body := doReq(t, ts.URL, "POST", "/vault/"+medicalID+"/lab_results", holderID, "holder", map[string]any{
			"kind":  "lab_report",
			"title": "Hemograma",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 upload, got %d body=%s", st, string(body))
		}
		var resp struct {
			RecordID string `json:"record_id"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.RecordID == "" {
			t.Fatalf("missing record_id, body=%s", string(body))
		}
		recordID = resp.RecordID
	}

	// El paciente lo ve en su historial de registros
	{
		st, body := doReq(t, ts.URL, "GET", "/me/records?category=lab_results", subjectID, "subject", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list records, got %d body=%s", st, string(body))
		}
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		found := false
		for _, it := range items {
			if it.ID == recordID {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected uploaded record %s in subject listing, body=%s", recordID, string(body))
		}
	}
}

func TestHTTP_Vault_UnknownPatient_404(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil,
		Logger:       logger.Nop(),
	}))
	defer ts.Close()

	holderID := createHolder(t, ts.URL, map[string]any{
		"public_id": "HOSP-9003",
		"name":      "Clínica Norte",
	})

	st, _ := doReq(t, ts.URL, "GET", "/vault/MED-USR-NADIE000/profile", holderID, "holder", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown medical id, got %d", st)
	}
}

func TestHTTP_CreateGrant_RejectsUnknownScope(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil,
		Logger:       logger.Nop(),
	}))
	defer ts.Close()

	subjectID, _ := createSubject(t, ts.URL, map[string]any{
		"email": "pat3@example.com",
	})
	createHolder(t, ts.URL, map[string]any{
		"public_id": "HOSP-9004",
		"name":      "Centro Este",
	})

	st, _ := doReq(t, ts.URL, "POST", "/me/grants", subjectID, "subject", map[string]any{
		"holder_public_id": "HOSP-9004",
		"scopes":           []string{"profile", "x_rays"},
		"mode":             "read_only",
		"duration":         "30d",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope, got %d", st)
	}
}

func createSubject(t *testing.T, baseURL string, payload map[string]any) (id, medicalID string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/subjects", "", "", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create subject, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID        string `json:"id"`
		MedicalID string `json:"medical_id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" || resp.MedicalID == "" {
		t.Fatalf("create subject: missing ids body=%s", string(body))
	}
	return resp.ID, resp.MedicalID
}

func createHolder(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/holders", "", "", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create holder, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create holder: missing id body=%s", string(body))
	}
	return resp.ID
}

func createGrant(t *testing.T, baseURL, subjectID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/me/grants", subjectID, "subject", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create grant, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create grant: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, actorID, actorType string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set("X-Debug-Actor-ID", actorID)
		req.Header.Set("X-Debug-Actor-Type", actorType)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
