package idp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medical-vault/internal/ports/auth"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

// Verifier implementa auth.AuthVerifier contra el IAM externo.
// Se instancia desde main/router solo si IDP_BASE_URL está configurado;
// sin él, el middleware corre en modo dev con headers de debug.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrIDPNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("idp verify failed: %w", err)
	}

	claims.ActorID = strings.TrimSpace(claims.ActorID)
	if claims.ActorID == "" {
		return auth.Claims{}, errors.New("idp claims missing actor id")
	}

	return claims, nil
}
