package main

//	@title						RTCC API
//	@version					0.1.0
//	@description				Real-time crime center dashboard API.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/CivicMesh/rtcc/api/swagger"
	"github.com/CivicMesh/rtcc/internal/auth"
	"github.com/CivicMesh/rtcc/internal/backend"
	"github.com/CivicMesh/rtcc/internal/config"
	"github.com/CivicMesh/rtcc/internal/crimedata"
	"github.com/CivicMesh/rtcc/internal/dashboard"
	"github.com/CivicMesh/rtcc/internal/event"
	"github.com/CivicMesh/rtcc/internal/fleet"
	"github.com/CivicMesh/rtcc/internal/incidents"
	"github.com/CivicMesh/rtcc/internal/nav"
	"github.com/CivicMesh/rtcc/internal/notify"
	"github.com/CivicMesh/rtcc/internal/registry"
	"github.com/CivicMesh/rtcc/internal/server"
	"github.com/CivicMesh/rtcc/internal/settings"
	"github.com/CivicMesh/rtcc/internal/store"
	"github.com/CivicMesh/rtcc/internal/theme"
	"github.com/CivicMesh/rtcc/internal/version"
	"github.com/CivicMesh/rtcc/internal/watch"
	"github.com/CivicMesh/rtcc/internal/ws"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.Info())
		return
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Config comes first so the logger can be configured from it.
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("RTCC server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	dbPath := viperCfg.GetString("database.path")
	if dbPath == "" {
		dbPath = "rtcc.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		logger.Fatal("schema version check failed", zap.Error(err))
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	bus := event.NewBus(logger.Named("event"))

	// Upstream backend client shared by modules that proxy live data.
	backendClient := backend.New(
		viperCfg.GetString("backend.base_url"),
		viperCfg.GetDuration("backend.timeout"),
		logger.Named("backend"),
	)

	reg := registry.New(logger.Named("registry"))
	modules := []plugin.Plugin{
		incidents.New(),
		fleet.New(backendClient),
		crimedata.New(),
		watch.New(),
		notify.New(),
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register module", zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		logger.Fatal("module validation failed", zap.Error(err))
	}

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg.Sub("modules." + name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Plugins: reg,
		}
	}); err != nil {
		logger.Fatal("failed to initialize modules", zap.Error(err))
	}

	// Wire bus subscriptions declared by modules.
	for _, m := range modules {
		sub, ok := m.(plugin.EventSubscriber)
		if !ok || reg.IsDisabled(m.Info().Name) {
			continue
		}
		for _, s := range sub.Subscriptions() {
			bus.Subscribe(s.Topic, s.Handler)
		}
	}

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start modules", zap.Error(err))
	}

	// Auth service.
	userStore, err := auth.NewUserStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize auth store", zap.Error(err))
	}

	jwtSecret := viperCfg.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		// Ephemeral secret: sessions will not survive a restart.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			logger.Fatal("failed to generate JWT secret", zap.Error(err))
		}
		jwtSecret = hex.EncodeToString(b)
		logger.Info("using auto-generated JWT secret (set auth.jwt_secret to persist sessions across restarts)",
			zap.String("component", "auth"),
		)
	}

	accessTTL := viperCfg.GetDuration("auth.access_token_ttl")
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := viperCfg.GetDuration("auth.refresh_token_ttl")
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	tokens := auth.NewTokenService([]byte(jwtSecret), accessTTL, refreshTTL)
	authService := auth.NewService(userStore, tokens, logger.Named("auth"))
	authHandler := auth.NewHandler(authService, logger.Named("auth"))
	logger.Info("auth service initialized",
		zap.String("component", "auth"),
		zap.Duration("access_token_ttl", accessTTL),
		zap.Duration("refresh_token_ttl", refreshTTL),
	)

	// Settings-backed UI services: key-value store, navigation, themes.
	settingsRepo, err := settings.NewRepository(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize settings repository", zap.Error(err))
	}
	settingsHandler := settings.NewHandler(settingsRepo, logger.Named("settings"))
	navHandler := nav.NewHandler(nav.DefaultTree(), settingsRepo, logger.Named("nav"))

	themes, err := theme.BuiltinRegistry()
	if err != nil {
		logger.Fatal("failed to build theme registry", zap.Error(err))
	}
	themeHandler := theme.NewHandler(themes, settingsRepo, logger.Named("theme"))

	// Real-time event stream for the dashboard.
	wsHandler := ws.NewHandler(tokens, bus, logger.Named("ws"))

	addr := viperCfg.GetString("server.host") + ":" + viperCfg.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8080"
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(addr, reg, logger, readyCheck, server.Options{
		Auth:      authHandler,
		Dashboard: dashboard.Handler(),
		DevMode:   viperCfg.GetBool("server.dev_mode"),
		DemoMode:  viperCfg.GetBool("server.demo_mode"),
		Extra: []server.SimpleRouteRegistrar{
			settingsHandler, navHandler, themeHandler, wsHandler,
		},
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("RTCC server ready", zap.String("addr", addr))

	port := viperCfg.GetString("server.port")
	if port == "" {
		port = "8080"
	}
	fmt.Fprintf(os.Stderr, "\n  RTCC %s is ready!\n  Open http://localhost:%s in your browser.\n\n", version.Short(), port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	wsHandler.Shutdown()
	reg.StopAll(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("RTCC server stopped")
}
