package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/save2win/save2win-front/internal/config"
	"github.com/save2win/save2win-front/internal/envutil"
	"github.com/save2win/save2win-front/internal/gateway"
	"github.com/save2win/save2win-front/internal/idp"
	"github.com/save2win/save2win-front/internal/log"
	"github.com/save2win/save2win-front/internal/mcptools"
	"github.com/save2win/save2win-front/internal/server"
	"github.com/save2win/save2win-front/internal/session"
	"github.com/save2win/save2win-front/internal/signin"
	"github.com/save2win/save2win-front/internal/storage"
	"github.com/save2win/save2win-front/internal/telemetry"
)

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 30 * time.Second

// Save2WinFront is the complete relay: sign-in, sessions and the engine
// gateway behind one HTTP handler.
type Save2WinFront struct {
	config     config.Config
	handler    http.Handler
	httpServer *server.HTTPServer
	storage    storage.Storage
	cleanup    *storage.CleanupManager
	gateway    *gateway.Gateway
	mcp        *mcptools.Server
	telemetry  telemetry.ShutdownFunc
}

// NewSave2WinFront builds the relay with all dependencies
func NewSave2WinFront(ctx context.Context, cfg config.Config) (*Save2WinFront, error) {
	config.ApplyDefaults(&cfg)

	log.LogInfoWithFields("save2win", "Building relay", map[string]any{
		"addr":             cfg.Server.Addr,
		"state_validation": string(cfg.SignIn.StateValidation),
		"engine":           cfg.Engine.BaseURL,
		"mcp":              cfg.MCP.Enabled,
	})

	tracingShutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}

	app := &Save2WinFront{config: cfg, telemetry: tracingShutdown}

	provider, err := idp.NewProvider(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity provider: %w", err)
	}

	opts := signin.Options{
		Provider:     provider,
		Mode:         cfg.SignIn.StateValidation,
		NonceTTL:     cfg.SignIn.NonceTTL,
		SecureCookie: cfg.Session.Secure,
	}
	if cfg.SignIn.StateValidation == config.StateValidationStrict {
		store, err := setupStorage(ctx, cfg.SignIn)
		if err != nil {
			return nil, fmt.Errorf("failed to setup storage: %w", err)
		}
		app.storage = store
		app.cleanup = storage.NewCleanupManager(store, cfg.SignIn.CleanupInterval)
		opts.Storage = store
		opts.SigningKey = []byte(cfg.SignIn.SigningKey)
	} else if !envutil.IsDev() {
		log.LogWarnWithFields("save2win", "Sign-in state is not validated server-side; set signin.stateValidation to strict", map[string]any{
			"state_validation": string(cfg.SignIn.StateValidation),
		})
	}

	initiator, err := signin.NewInitiator(opts)
	if err != nil {
		app.closeStorage()
		return nil, fmt.Errorf("failed to create sign-in initiator: %w", err)
	}

	app.gateway, err = gateway.New(gateway.Config{
		BaseURL: cfg.Engine.BaseURL,
		Timeout: cfg.Engine.Timeout,
	})
	if err != nil {
		app.closeStorage()
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	sessions := session.NewStore(session.Config{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Session.Secure,
	})

	var projection gateway.Projection = gateway.Identity{}
	if cfg.Engine.Reshape {
		projection = gateway.GameState{}
	}

	if cfg.MCP.Enabled {
		app.mcp = mcptools.NewServer(mcptools.Config{
			Name:             cfg.Telemetry.ServiceName,
			Gateway:          app.gateway,
			Sessions:         sessions,
			Projection:       projection,
			GameStatePath:    cfg.Engine.GameStatePath,
			TransactionsPath: cfg.Engine.TransactionsPath,
		})
	}

	mux := buildHTTPHandler(cfg, initiator, provider, sessions, app.gateway, projection, app.mcp)
	app.handler = otelhttp.NewHandler(mux, "save2win-front")
	app.httpServer = server.NewHTTPServer(app.handler, cfg.Server.Addr)

	return app, nil
}

// Handler returns the relay's root handler
func (a *Save2WinFront) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled or the server fails, then shuts down
func (a *Save2WinFront) Run(ctx context.Context) error {
	log.LogInfoWithFields("save2win", "Starting relay", map[string]any{
		"addr": a.config.Server.Addr,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpServer.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if a.cleanup != nil {
		g.Go(func() error {
			return a.cleanup.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.LogInfoWithFields("save2win", "Starting graceful shutdown", map[string]any{
			"timeout": shutdownTimeout.String(),
		})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		log.LogErrorWithFields("save2win", "Relay stopped with error", map[string]any{
			"error": err.Error(),
		})
		return err
	}
	log.LogInfoWithFields("save2win", "Application shutdown complete", nil)
	return nil
}

func (a *Save2WinFront) shutdown(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keep(a.httpServer.Stop(ctx))
	if a.mcp != nil {
		keep(a.mcp.Shutdown(ctx))
	}
	a.Close()
	keep(a.telemetry(ctx))
	return firstErr
}

// Close releases the engine connection pool and the storage backend
func (a *Save2WinFront) Close() {
	if a.gateway != nil {
		a.gateway.Close()
	}
	a.closeStorage()
}

func (a *Save2WinFront) closeStorage() {
	if a.storage == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		log.LogWarnWithFields("save2win", "Error closing storage", map[string]any{
			"error": err.Error(),
		})
	}
}

// setupStorage creates the pending sign-in store for strict mode
func setupStorage(ctx context.Context, cfg config.SignInConfig) (storage.Storage, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		log.LogInfoWithFields("save2win", "Using Redis for pending sign-ins", map[string]any{
			"addr": cfg.Redis.Addr,
			"db":   cfg.Redis.DB,
		})
		return storage.NewRedisStorage(ctx, storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: string(cfg.Redis.Password),
			DB:       cfg.Redis.DB,
		})
	case config.StorageFirestore:
		log.LogInfoWithFields("save2win", "Using Firestore for pending sign-ins", map[string]any{
			"project":    cfg.Firestore.Project,
			"database":   cfg.Firestore.Database,
			"collection": cfg.Firestore.Collection,
		})
		return storage.NewFirestoreStorage(ctx, cfg.Firestore.Project, cfg.Firestore.Database, cfg.Firestore.Collection)
	case config.StorageMemory, "":
		log.LogInfoWithFields("save2win", "Using in-memory storage for pending sign-ins", nil)
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage kind: %s", cfg.Storage)
	}
}

func buildHTTPHandler(
	cfg config.Config,
	initiator *signin.Initiator,
	provider idp.Provider,
	sessions *session.Store,
	gw *gateway.Gateway,
	projection gateway.Projection,
	mcp *mcptools.Server,
) http.Handler {
	authHandlers := server.NewAuthHandlers(initiator, provider, sessions)
	sessionHandlers := server.NewSessionHandlers(sessions)
	gatewayHandlers := server.NewGatewayHandlers(gw, sessions, projection, server.GatewayPaths{
		GameState: cfg.Engine.GameStatePath,
		Refresh:   cfg.Engine.RefreshPath,
	}, gateway.NewAllowlist(cfg.Engine.AllowedPaths))

	mux := http.NewServeMux()

	mux.Handle("GET /health", server.NewHealthHandler())
	mux.HandleFunc("GET /{$}", authHandlers.ShellHandler)

	mux.HandleFunc("GET /auth/signin-url", authHandlers.SignInURLHandler)
	mux.HandleFunc("GET /auth/login", authHandlers.LoginHandler)
	mux.HandleFunc("GET /callback", authHandlers.CallbackHandler)
	mux.HandleFunc("POST /callback", authHandlers.CallbackHandler)
	mux.HandleFunc("GET /auth/session", authHandlers.IssueSessionHandler)
	mux.HandleFunc("GET /signin/finish", authHandlers.FinishHandler)

	mux.HandleFunc("GET /api/session", sessionHandlers.StatusHandler)
	mux.HandleFunc("POST /api/logout", sessionHandlers.LogoutHandler)

	mux.HandleFunc("GET /api/game-state", gatewayHandlers.GameStateHandler)
	mux.HandleFunc("POST /api/game-state", gatewayHandlers.GameStateHandler)
	mux.HandleFunc("GET /api/engine/{path...}", gatewayHandlers.EngineHandler)

	if mcp != nil {
		mux.Handle(mcptools.EndpointPath, mcp.Handler())
	}

	return server.ChainMiddleware(mux,
		server.NewCORSMiddleware(cfg.Server.AllowedOrigins),
		server.NewLoggerMiddleware("http"),
		server.NewRequestIDMiddleware(),
		server.NewRecoverMiddleware("http"),
	)
}
