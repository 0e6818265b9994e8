package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "medical-vault/internal/adapters/storage/memory"
	pg "medical-vault/internal/adapters/storage/postgres"
	"medical-vault/internal/domain/audit"
	"medical-vault/internal/domain/authz"
	"medical-vault/internal/domain/grants"
	"medical-vault/internal/domain/holders"
	"medical-vault/internal/domain/records"
	"medical-vault/internal/domain/subjects"
	"medical-vault/internal/domain/vault"
	"medical-vault/internal/middleware"
	"medical-vault/internal/platform/logger"
	"medical-vault/internal/ports/auth"
	"medical-vault/internal/ports/filestore"

	_ "medical-vault/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: servicio de blobs para canjear file tokens. Nil deja
	// los uploads con file_ref directo.
	FileStore filestore.Store

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.ActorContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	var (
		subjectsRepo subjects.Repository
		holdersRepo  holders.Repository
		grantsRepo   grants.Repository
		auditRepo    audit.Repository
		recordsRepo  records.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres no disponible, usando memoria", map[string]any{"error": err.Error()})
			}
		}
	}

	if db != nil {
		subjectsRepo = pg.NewSubjectsRepo(db)
		holdersRepo = pg.NewHoldersRepo(db)
		grantsRepo = pg.NewGrantsRepo(db)
		auditRepo = pg.NewAuditRepo(db)
		recordsRepo = pg.NewRecordsRepo(db)
	} else {
		subjectsRepo = mem.NewSubjectRepo()
		holdersRepo = mem.NewHolderRepo()
		grantsRepo = mem.NewGrantRepo()
		auditRepo = mem.NewAuditRepo()
		recordsRepo = mem.NewRecordRepo()
	}

	// Services por módulo. El orden importa: todos los que mutan
	// dependen del audit log para el write-then-commit.
	auditSvc := audit.NewService(auditRepo)
	holdersSvc := holders.NewService(holdersRepo)
	subjectsSvc := subjects.NewService(subjectsRepo, auditSvc)
	grantsSvc := grants.NewService(grantsRepo, holdersSvc, auditSvc)
	recordsSvc := records.NewService(recordsRepo, auditSvc)

	engine := authz.NewEngine(grantsSvc)
	vaultSvc := vault.NewService(engine, grantsSvc, subjectsSvc, recordsRepo, auditSvc, log)

	// Rutas por módulo
	subjects.RegisterRoutes(r, subjectsSvc)
	holders.RegisterRoutes(r, holdersSvc)
	grants.RegisterRoutes(r, grantsSvc, holdersSvc)
	records.RegisterRoutes(r, recordsSvc, opts.FileStore)
	audit.RegisterRoutes(r, auditSvc)
	vault.RegisterRoutes(r, vaultSvc, subjectsSvc, opts.FileStore)

	return r
}
