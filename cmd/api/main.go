package main

import (
	"net/http"
	"os"
	"time"

	"medical-vault/internal/adapters/auth/idp"
	"medical-vault/internal/adapters/filestore/blobsvc"
	"medical-vault/internal/platform/logger"
	"medical-vault/internal/ports/auth"
	"medical-vault/internal/ports/filestore"
	"medical-vault/internal/router"
)

// @title Medical Vault API
// @version 0.1
// @description Core de acceso a datos médicos por consentimiento: grants, auditoría y lectura/escritura de holders.
// @BasePath /
func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Sin IDP_BASE_URL el middleware corre en modo dev (headers de debug).
	var verifier auth.AuthVerifier
	if base := os.Getenv("IDP_BASE_URL"); base != "" {
		client, err := idp.NewClient(idp.Config{
			BaseURL: base,
			APIKey:  os.Getenv("IDP_API_KEY"),
		})
		if err != nil {
			log.Error("idp config inválida", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = idp.NewVerifier(client)
	}

	var files filestore.Store
	if base := os.Getenv("BLOB_BASE_URL"); base != "" {
		client, err := blobsvc.NewClient(blobsvc.Config{
			BaseURL: base,
			APIKey:  os.Getenv("BLOB_API_KEY"),
		})
		if err != nil {
			log.Error("blobsvc config inválida", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		files = client
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		FileStore:    files,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
