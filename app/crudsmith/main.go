package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jrazmi/crudsmith/app/crudsmith/api"
	"github.com/jrazmi/crudsmith/app/crudsmith/config"
	"github.com/jrazmi/crudsmith/app/crudsmith/frontend"
	"github.com/jrazmi/crudsmith/app/generators/orchestrator"
	"github.com/jrazmi/crudsmith/bridge/scaffolding/mid"
	"github.com/jrazmi/crudsmith/infrastructure/sqldb"
	"github.com/jrazmi/crudsmith/infrastructure/web"
	"github.com/jrazmi/crudsmith/sdk/environment"
	"github.com/jrazmi/crudsmith/sdk/logger"
	"github.com/jrazmi/crudsmith/sdk/telemetry"
	"github.com/jrazmi/crudsmith/sdk/version"
)

var build = "develop"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := environment.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.NewFromEnv(config.AppName,
		logger.WithService("crudsmith"),
		logger.WithTraceIDFn(telemetry.TraceID),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "startup", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	log.InfoContext(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "version", version.String())

	// DATABASES
	admin, err := sqldb.NewFromEnv(ctx, sqldb.EnvPrefix, sqldb.WithLogger(log))
	if err != nil {
		return fmt.Errorf("configuring database support: %w", err)
	}
	defer func() {
		log.InfoContext(ctx, "shutdown", "status", "closing database connections")
		if err := admin.Close(); err != nil {
			log.ErrorContext(ctx, "shutdown", "err", err)
		}
	}()

	// GENERATOR
	genCfg, err := orchestrator.ConfigFromEnv()
	if err != nil {
		return err
	}
	gateway, err := config.GatewayFromEnv()
	if err != nil {
		return err
	}

	cfg := config.Crudsmith{
		Build:     build,
		Logger:    log,
		Telemetry: telemetry.NewTelemetry(),
		Gateway:   gateway,
		Generator: genCfg,
		Admin:     admin,
	}
	handler, err := webHandler(cfg)
	if err != nil {
		return err
	}

	server, err := web.NewServerFromEnv(config.AppName,
		web.WithHandler(handler),
		web.WithErrorLog(logger.NewStdLogger(log, slog.LevelError)),
	)
	if err != nil {
		return fmt.Errorf("webserver: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(ctx, "startup", "status", "api router started", "host", server.Addr, "dialect", admin.Dialect().String())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.InfoContext(ctx, "shutdown", "status", "shutdown started")
		defer log.InfoContext(ctx, "shutdown", "status", "shutdown complete")

		sctx, cancel := context.WithTimeout(context.Background(), server.Config.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(sctx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func webHandler(cfg config.Crudsmith) (http.Handler, error) {

	// INITIALIZATION
	wh := web.NewWebHandler(web.HandlerOptions{},
		web.WithLogging(cfg.Logger),
		web.WithTelemetry(cfg.Telemetry),
		web.WithGlobalMiddleware(
			mid.CORS(cfg.Gateway.CORSOrigins...), // Preflights answer here
			mid.Logger(cfg.Logger),               // Request logging
			mid.Errors(cfg.Logger),               // Error handling
			mid.Metrics(),                        // Metrics collection
			mid.Panics(),                         // Panic recovery
		),
	)

	// API
	api.AddHandlers(wh, cfg)
	wh.HandleRaw("GET /debug/vars", expvar.Handler())

	// FRONTEND
	if _, err := frontend.AddHandlers(wh); err != nil {
		return nil, err
	}

	return wh, nil
}
