package idp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medical-vault/internal/platform/httpclient"
	"medical-vault/internal/ports/auth"
)

var (
	ErrIDPNotConfigured = errors.New("idp client not configured")
	ErrIDPUnauthorized  = errors.New("idp unauthorized")
	ErrIDPUpstream      = errors.New("idp upstream error")
)

// Config del cliente del IAM externo.
// BaseURL y APIKey normalmente vendrán de env vars en el servicio que lo instancie.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: nombre del header donde se manda la API key.
	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// VerifyToken consulta el IAM por un token y devuelve identidad + tipo de actor.
// El IAM distingue cuentas de pacientes y cuentas de facilities; este core
// solo confía en lo que el IAM diga.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrIDPNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrIDPUnauthorized
	}

	var out struct {
		AccountID   string `json:"account_id"`
		AccountType string `json:"account_type"` // "patient" | "facility"
		Email       string `json:"email"`
	}

	headers := map[string]string{
		c.apiKeyHeader: c.apiKey,
		// Algunos IAM esperan el token en Authorization, aunque también vaya en body.
		"Authorization": "Bearer " + token,
	}

	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify", headers,
		map[string]string{"token": token}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden {
				return auth.Claims{}, ErrIDPUnauthorized
			}
			return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrIDPUpstream, httpErr.StatusCode)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrIDPUpstream, err)
	}

	out.AccountID = strings.TrimSpace(out.AccountID)
	if out.AccountID == "" {
		return auth.Claims{}, errors.New("idp response missing account_id")
	}

	actorType := auth.ActorSubject
	if strings.EqualFold(out.AccountType, "facility") {
		actorType = auth.ActorHolder
	}

	return auth.Claims{
		ActorID:   out.AccountID,
		ActorType: actorType,
		Email:     strings.TrimSpace(out.Email),
	}, nil
}
