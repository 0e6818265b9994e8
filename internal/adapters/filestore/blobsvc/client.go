package blobsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medical-vault/internal/platform/httpclient"
	"medical-vault/internal/ports/filestore"
)

var (
	ErrBlobNotConfigured = errors.New("blob service client not configured")
	ErrBlobUnauthorized  = errors.New("blob service unauthorized")
	ErrBlobUpstream      = errors.New("blob service upstream error")
	ErrTokenUnknown      = errors.New("upload token unknown or expired")
)

type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

// Client habla con el servicio de blobs que guarda los archivos subidos.
// Este core nunca ve el binario: solo canjea el upload token por metadata
// y guarda la referencia en el registro.
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

var _ filestore.Store = (*Client)(nil)

// Describe canjea un upload token por la metadata del archivo ya subido.
func (c *Client) Describe(ctx context.Context, uploadToken string) (filestore.FileMeta, error) {
	if !c.IsConfigured() {
		return filestore.FileMeta{}, ErrBlobNotConfigured
	}
	uploadToken = strings.TrimSpace(uploadToken)
	if uploadToken == "" {
		return filestore.FileMeta{}, ErrTokenUnknown
	}

	var out struct {
		Ref         string `json:"ref"`
		Name        string `json:"name"`
		ContentType string `json:"content_type"`
		Size        int64  `json:"size"`
	}

	headers := map[string]string{
		c.apiKeyHeader: c.apiKey,
	}

	err := c.http.DoJSON(ctx, http.MethodGet, "/v1/uploads/"+uploadToken, headers, nil, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusNotFound, http.StatusGone:
				return filestore.FileMeta{}, ErrTokenUnknown
			case http.StatusUnauthorized, http.StatusForbidden:
				return filestore.FileMeta{}, ErrBlobUnauthorized
			}
			return filestore.FileMeta{}, fmt.Errorf("%w: status=%d", ErrBlobUpstream, httpErr.StatusCode)
		}
		return filestore.FileMeta{}, fmt.Errorf("%w: %v", ErrBlobUpstream, err)
	}

	out.Ref = strings.TrimSpace(out.Ref)
	if out.Ref == "" {
		return filestore.FileMeta{}, errors.New("blob response missing ref")
	}

	return filestore.FileMeta{
		Ref:         out.Ref,
		Name:        out.Name,
		ContentType: out.ContentType,
		Size:        out.Size,
	}, nil
}
