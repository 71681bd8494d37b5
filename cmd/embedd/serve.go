package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"embedd/internal/common/logging"
	"embedd/internal/common/tracing"
	"embedd/internal/config"
	"embedd/internal/httpapi"
	"embedd/internal/manager"
	"embedd/internal/server"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	configPath   string
	modelsPath   string
	bindAddr     string
	httpAddr     string
	logLevel     string
	corsOrigins  string
	defaultModel string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the configured models and serve OVNT and HTTP clients",
		Example: "  embedd serve --config config.toml\n" +
			"  EMBEDD_BIND_ADDRESS=127.0.0.1:9000 embedd serve --http-bind ''",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", envOr("EMBEDD_CONFIG", ""), "Server config file (.toml, .yaml, .json); built-in defaults when empty")
	f.StringVar(&opts.modelsPath, "models-config", envOr("EMBEDD_MODELS_CONFIG", ""), "Models config file, overrides embedding.models_config")
	f.StringVar(&opts.bindAddr, "bind", os.Getenv("EMBEDD_BIND_ADDRESS"), "OVNT listen address, overrides network.bind_address")
	f.StringVar(&opts.httpAddr, "http-bind", os.Getenv("EMBEDD_HTTP_BIND_ADDRESS"), "HTTP listen address, overrides http.bind_address")
	f.StringVar(&opts.logLevel, "log-level", os.Getenv("EMBEDD_LOG_LEVEL"), "Log level: trace|debug|info|warn|error")
	f.StringVar(&opts.corsOrigins, "cors-origins", os.Getenv("EMBEDD_CORS_ORIGINS"), "Comma separated CORS origins, overrides http.cors_origins")
	f.StringVar(&opts.defaultModel, "default-model", "", "Default model, overrides embedding.default_model")
	return cmd
}

// loadServerConfig reads the server config and applies flag overrides.
// httpBindSet distinguishes an explicit empty --http-bind from an unset flag.
func loadServerConfig(opts *serveOptions, httpBindSet bool) (config.ServerConfig, error) {
	cfg := config.DefaultServer()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, fmt.Errorf("load %s: %w", opts.configPath, err)
		}
	}
	if opts.modelsPath != "" {
		cfg.Embedding.ModelsConfig = opts.modelsPath
	}
	if opts.bindAddr != "" {
		cfg.Network.BindAddress = opts.bindAddr
	}
	if opts.httpAddr != "" || httpBindSet {
		cfg.HTTP.BindAddress = opts.httpAddr
	}
	if opts.logLevel != "" {
		cfg.Monitoring.LogLevel = opts.logLevel
	}
	if opts.corsOrigins != "" {
		cfg.HTTP.CORSOrigins = splitCSV(opts.corsOrigins)
	}
	if opts.defaultModel != "" {
		cfg.Embedding.DefaultModel = opts.defaultModel
	}
	return cfg, nil
}

// loadModelsConfig reads the models document named by cfg. The server level
// default model, when set, replaces global.default_model.
func loadModelsConfig(cfg config.ServerConfig, serverConfigPath string) (config.ModelsConfig, error) {
	path := cfg.ModelsConfigPath(serverConfigPath)
	models, err := config.LoadModels(path)
	if err != nil {
		return models, fmt.Errorf("load models %s: %w", path, err)
	}
	if cfg.Embedding.DefaultModel != "" {
		models.Global.DefaultModel = cfg.Embedding.DefaultModel
	}
	return models, nil
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := loadServerConfig(opts, cmd.Flags().Changed("http-bind"))
	if err != nil {
		return err
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.Monitoring.LogLevel, cfg.Monitoring.LogFormat)

	shutdownTracing, err := tracing.Setup(ctx, cfg.Monitoring.TracingExporter, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	models, err := loadModelsConfig(cfg, opts.configPath)
	if err != nil {
		return err
	}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{Models: models, Logger: log})
	if err != nil {
		return err
	}
	if report := mgr.SanityCheck(); !report.OK() {
		for _, m := range report.Models {
			if !m.OK {
				log.Warn().Str("model", m.ID).Str("kind", m.Kind).Str("problem", m.Error).Msg("model sanity check failed")
			}
		}
	}
	log.Info().Str("default_model", mgr.DefaultModel()).Int("models", len(models.Models)).Msg("loading models")
	if err := mgr.Initialize(ctx); err != nil {
		_ = mgr.Shutdown()
		return fmt.Errorf("initialize models: %w", err)
	}
	defer func() {
		if err := mgr.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("model shutdown")
		}
		log.Info().Msg("embedd stopped")
	}()

	g, gctx := errgroup.WithContext(ctx)
	ovnt := server.New(mgr, cfg.Network, log.With().Str("component", "ovnt").Logger())
	g.Go(func() error { return ovnt.ListenAndServe(gctx) })

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	g.Go(func() error {
		reloadOnSignal(gctx, hup, func() (config.ModelsConfig, error) { return loadModelsConfig(cfg, opts.configPath) }, mgr, log)
		return nil
	})

	if cfg.HTTP.BindAddress != "" {
		srv := newHTTPServer(gctx, cfg, mgr, log)
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("http gateway listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http gateway: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	return g.Wait()
}

type reloader interface {
	Reload(ctx context.Context, cfg config.ModelsConfig) error
}

// reloadOnSignal re-reads the models document and applies it each time sigs
// fires, until ctx is done. Failures are logged; a document that fails
// validation leaves the running models untouched.
func reloadOnSignal(ctx context.Context, sigs <-chan os.Signal, load func() (config.ModelsConfig, error), r reloader, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			log.Info().Str("signal", sig.String()).Msg("reloading models config")
			models, err := load()
			if err != nil {
				log.Error().Err(err).Msg("models config reload skipped")
				continue
			}
			if err := r.Reload(ctx, models); err != nil {
				log.Error().Err(err).Msg("models config reload failed")
			}
		}
	}
}

// newHTTPServer configures the httpapi package from cfg and returns the
// gateway server. Handlers observe ctx through httpapi.SetBaseContext.
func newHTTPServer(ctx context.Context, cfg config.ServerConfig, mgr *manager.Manager, log zerolog.Logger) *http.Server {
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	httpapi.SetVersion(version)
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetEmbedTimeoutSeconds(int64(cfg.Embedding.RequestTimeoutSecs))
	httpapi.SetMetricsEnabled(cfg.Monitoring.EnableMetrics)
	httpapi.SetCORSOptions(len(cfg.HTTP.CORSOrigins) > 0, cfg.HTTP.CORSOrigins, nil, nil)
	if cfg.Monitoring.EnableDetailedLogging {
		httpapi.SetDefaultLogLevel("info")
	}
	return &http.Server{
		Addr:              cfg.HTTP.BindAddress,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
