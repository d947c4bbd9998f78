package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mind-insight/apiserver/config"
	"github.com/mind-insight/apiserver/internal/archive"
	"github.com/mind-insight/apiserver/internal/audit"
	"github.com/mind-insight/apiserver/internal/auth"
	"github.com/mind-insight/apiserver/internal/db"
	"github.com/mind-insight/apiserver/internal/handlers"
	"github.com/mind-insight/apiserver/internal/query"
	"github.com/mind-insight/apiserver/internal/services"
	"github.com/mind-insight/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	audit      *audit.Publisher
}

// New constructs a Server with the full dependency graph: credential
// store, auth gate, query executor, lookup cache, audit publisher, and
// snapshot archive.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	credentials, err := auth.LoadCredentials(cfg.Auth.CredentialsFile)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	gate := auth.NewGate(credentials)

	executor := query.NewExecutor(dbConn, cfg.Query.Timeout)

	redisClient := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	lookups := store.NewLookupStore(dbConn, redisClient, cfg.Redis.TTL)

	auditPub, err := newAuditPublisher(ctx, cfg.Audit)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	dashboards := services.NewDashboardService(gate, executor, auditPub, lookups)

	snapshotStore, err := newSnapshotStore(ctx, cfg.Snapshot)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		auth.SessionMiddleware([]byte(jwtSecret)),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, gate, auditPub, jwtSecret, cfg.Auth.TokenTTL)
	})
	router.Route("/dashboards", func(r chi.Router) {
		handlers.DashboardRouter(r, gate, dashboards, cfg.Filters.DefaultWindowDays)
	})
	router.Route("/filters", func(r chi.Router) {
		handlers.FiltersRouter(r, lookups)
	})
	if snapshotStore != nil {
		snapshots := services.NewSnapshotService(snapshotStore, dashboards)
		router.Route("/snapshots", func(r chi.Router) {
			handlers.SnapshotRouter(r, gate, snapshots, cfg.Filters.DefaultWindowDays)
		})
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		audit:      auditPub,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = s.audit.Close()
	return s.httpServer.Close()
}

func newAuditPublisher(ctx context.Context, cfg config.AuditConfig) (*audit.Publisher, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := audit.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return audit.NewPublisher(backend, cfg.Channel), nil
	case "pubsub":
		backend, err := audit.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return audit.NewPublisher(backend, cfg.Channel), nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

func newSnapshotStore(ctx context.Context, cfg config.SnapshotConfig) (archive.Store, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		return archive.NewMinioStore(cfg.Minio)
	case "gcs":
		return archive.NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
