package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/mehmetcc/denticore/internal/config"
	"github.com/mehmetcc/denticore/internal/database"
	"github.com/mehmetcc/denticore/internal/guard"
	"github.com/mehmetcc/denticore/internal/httpx"
	"github.com/mehmetcc/denticore/internal/keys"
	"github.com/mehmetcc/denticore/internal/license"
	"github.com/mehmetcc/denticore/internal/rbac"
	"github.com/mehmetcc/denticore/internal/subscription"
	"github.com/mehmetcc/denticore/internal/token"
	"go.uber.org/zap"
	"moul.io/chizap"
)

func main() {
	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// load config (godotenv inside)
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// load database
	db, err := database.Init(cfg.DbConfig)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// run migrations
	database.SetMigrationLogger(logger)
	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// verification keys: PEM files first, JWKS endpoint as fallback
	var keyProvider keys.Provider
	if len(cfg.JWTConfig.PublicKeyPaths) > 0 {
		loaded, err := keys.LoadPublicKeys(cfg.JWTConfig.PublicKeyPaths)
		if err != nil {
			logger.Fatal("failed to load public keys", zap.Error(err))
		}
		keyProvider = keys.Static(loaded...)
	} else {
		keyProvider = keys.NewJWKSClient(cfg.JWTConfig.JWKSURL, cfg.JWTConfig.JWKSCacheTTL, logger)
	}

	registry := guard.NewRegistry()
	registerRoutes(registry)

	g := guard.New(logger, guard.Options{
		Verifier:      token.NewVerifier(logger),
		KeyProvider:   keyProvider,
		Issuer:        cfg.JWTConfig.Issuer,
		Registry:      registry,
		Licenses:      license.NewEngine(),
		Subscriptions: subscription.NewRepo(db, logger),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(chizap.New(logger, &chizap.Opts{
		WithReferer:   true,
		WithUserAgent: true,
	}))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(g.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, guard.UserFromContext(r.Context()))
	})
	r.Get("/appointments", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []string{})
	})
	r.Post("/appointments", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	})
	r.Get("/teledentistry/rooms", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []string{})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppConfig.Port,
		Handler:      r,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	logger.Info("application started", zap.String("port", cfg.AppConfig.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// registerRoutes declares each route's requirements next to where the
// routes are mounted. Anything not listed here requires plain
// authentication.
func registerRoutes(registry *guard.Registry) {
	registry.Register(http.MethodGet, "/healthz", guard.Requirements{Public: true})
	registry.Register(http.MethodGet, "/me", guard.Requirements{AllowGracePeriod: true})
	registry.Register(http.MethodGet, "/appointments", guard.Requirements{
		Roles:            []string{rbac.RoleReceptionist, rbac.RoleDoctor, rbac.RoleNurse, rbac.RoleClinicAdmin, rbac.RoleOrgAdmin, rbac.RoleSuperAdmin},
		Module:           license.ModuleScheduling,
		AllowGracePeriod: true,
	})
	registry.Register(http.MethodPost, "/appointments", guard.Requirements{
		Roles:  []string{rbac.RoleReceptionist, rbac.RoleClinicAdmin, rbac.RoleOrgAdmin, rbac.RoleSuperAdmin},
		Module: license.ModuleScheduling,
	})
	registry.Register(http.MethodGet, "/teledentistry/rooms", guard.Requirements{
		Roles:            []string{rbac.RoleDoctor, rbac.RoleNurse},
		Module:           license.ModuleTeledentistry,
		AllowGracePeriod: true,
	})
}
