// app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/httputil"
	"github.com/dalemusser/contactform/logging"
	"github.com/dalemusser/contactform/metrics"
	"github.com/dalemusser/contactform/pantry/version"
	"github.com/dalemusser/contactform/server"
)

// Hooks defines the integration points an application provides to Run.
type Hooks[C any, D any] struct {
	// Name is used only for logging/diagnostics.
	Name string

	// LoadConfig returns the core config and the app-specific config.
	// args are the command-line arguments without the program name.
	LoadConfig func(logger *zap.Logger, args []string) (*config.CoreConfig, C, error)

	// ConnectBackends builds the clients the app talks to (mail relays,
	// upstream APIs). It should not block on remote I/O.
	ConnectBackends func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// Preflight probes the backends once at startup. A failure is logged as
	// a warning and startup continues. May be nil.
	Preflight func(ctx context.Context, core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) error

	// BuildHandler constructs the final http.Handler: router, middleware
	// and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)
}

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load core + app config (Hooks.LoadConfig)
//  3. Build final logger based on core config
//  4. Register default metrics
//  5. Connect backends (Hooks.ConnectBackends)
//  6. Preflight backends (Hooks.Preflight, if provided)
//  7. Wire shutdown signals to a context
//  8. Build the HTTP handler (Hooks.BuildHandler)
//  9. Start the HTTP(S) server and block until shutdown
//
// A --help request returns nil without starting anything.
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D], args []string) error {
	if hooks.LoadConfig == nil || hooks.ConnectBackends == nil || hooks.BuildHandler == nil {
		return errors.New("app: LoadConfig, ConnectBackends and BuildHandler are required")
	}

	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("logger initialized", zap.String("app", hooks.Name), zap.String("version", version.String()))
	logger.Debug("core config", zap.String("config", coreCfg.Dump()))

	httputil.SetLogger(logger)
	metrics.RegisterDefault(logger)

	deps, err := hooks.ConnectBackends(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return fmt.Errorf("connect backends: %w", err)
	}

	if hooks.Preflight != nil {
		if err := hooks.Preflight(ctx, coreCfg, appCfg, deps, logger); err != nil {
			logger.Warn("preflight check failed; continuing", zap.Error(err))
		}
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
