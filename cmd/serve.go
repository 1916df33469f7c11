package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/collegeapi/internal/adapters/http/api"
	"github.com/okian/collegeapi/internal/adapters/http/swagger"
	"github.com/okian/collegeapi/internal/adapters/identity"
	"github.com/okian/collegeapi/internal/adapters/repository"
	"github.com/okian/collegeapi/internal/adapters/scorecard"
	"github.com/okian/collegeapi/internal/adapters/textgen"
	app "github.com/okian/collegeapi/internal/app"
	"github.com/okian/collegeapi/internal/config"
	"github.com/okian/collegeapi/internal/domain/essay"
	"github.com/okian/collegeapi/pkg/logger"
)

// HTTP server timeout constants. Writes allow for slow text generation.
const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 90 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is layered: defaults, then the YAML file named by
COLLEGEAPI_CONFIG, then COLLEGEAPI_* environment variables. The unprefixed
names used by earlier deployments (COLLEGE_SCORECARD_API_KEY, SUPABASE_URL,
OPENAI_API_KEY, ...) fill any setting left empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config (e.g. :5000)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error(context.Background(), "store close failed", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

func newMux(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithLogger(log.Named("api")),
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
	).Register(ctx, mux)
	return mux
}

// buildService wires the configured adapters into the application service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	gen, err := textgen.New(ctx, textgen.Settings{
		Provider:      cfg.LLMProvider,
		OpenAIKey:     cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiKey:     cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		Timeout:       cfg.LLMTimeout(),
	}, log.Named("textgen"))
	if err != nil {
		_ = closeStore(store)
		return nil, fmt.Errorf("text generation: %w", err)
	}
	coach, err := essay.NewCoach(gen, essay.WithLogger(log.Named("essay")))
	if err != nil {
		_ = closeStore(store)
		return nil, fmt.Errorf("essay coach: %w", err)
	}

	search := scorecard.New(cfg.ScorecardAPIKey,
		scorecard.WithBaseURL(cfg.ScorecardBaseURL),
		scorecard.WithTimeout(cfg.ScorecardTimeout()),
		scorecard.WithLogger(log.Named("scorecard")),
	)
	verifier := identity.NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey,
		identity.WithTimeout(cfg.AuthTimeout()),
		identity.WithLogger(log.Named("identity")),
	)
	if !verifier.Configured() {
		log.Warn(ctx, "Supabase is not configured; saved-college routes will fail")
	}

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithScorecard(search),
		app.WithVerifier(verifier),
		app.WithCoach(coach),
	), nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, repository.WithLogger(log.Named("repository")))
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		log.Info(ctx, "using postgres store")
		return pg, nil
	default:
		log.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(ctx), nil
	}
}

func closeStore(st repository.Store) error {
	if c, ok := st.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
