package bootstrap

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/contactform/app"
	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/internal/app/features/contact"
	"github.com/dalemusser/contactform/metrics"
	"github.com/dalemusser/contactform/middleware"
	"github.com/dalemusser/contactform/pantry/email"
	"github.com/dalemusser/contactform/pantry/fileserver"
	"github.com/dalemusser/contactform/pantry/health"
	"github.com/dalemusser/contactform/pantry/version"
	"github.com/dalemusser/contactform/router"
)

// staticCompressLevel is the gzip level for uncompressed static files.
const staticCompressLevel = 5

// LoadConfig loads core config and the contact service's own keys.
func LoadConfig(logger *zap.Logger, args []string) (*config.CoreConfig, AppConfig, error) {
	coreCfg, values, err := config.Load(logger, args, AppEnvPrefix, AppKeys...)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := newAppConfig(values)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, appCfg, nil
}

// ConnectBackends builds the SMTP sender. No connection is opened here.
func ConnectBackends(_ context.Context, _ *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	sender := email.NewSender(appCfg.SMTP)
	cfg := sender.Config()
	logger.Info("smtp sender configured",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("encryption", string(cfg.Encryption)),
		zap.Bool("auth", cfg.Username != ""),
	)
	return Deps{Sender: sender}, nil
}

// Preflight dials the relay once so a misconfiguration shows up at startup.
func Preflight(ctx context.Context, _ *config.CoreConfig, appCfg AppConfig, deps Deps, _ *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, appCfg.SMTP.Timeout)
	defer cancel()
	return deps.Sender.Ping(ctx)
}

// BuildHandler mounts the contact endpoint, health, metrics, version and
// the optional static site.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	r := router.New(coreCfg, logger)

	h := contact.NewHandler(contact.Config{
		Recipient: appCfg.Recipient,
		MaxMemory: coreCfg.MaxRequestBodyBytes,
	}, deps.Sender, logger)
	contact.Mount(r, appCfg.ContactPath, h)

	checks := map[string]health.Check{}
	if appCfg.HealthCheckSMTP {
		checks["smtp"] = deps.Sender.Ping
	}
	health.Mount(r, checks, appCfg.SMTP.Timeout, logger)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	version.Mount(r)

	if appCfg.StaticDir != "" {
		r.With(middleware.Compress(staticCompressLevel, middleware.StaticCompressTypes...)).
			Handle("/*", fileserver.Handler("", appCfg.StaticDir, fileserver.Options{}))
		logger.Info("serving static files", zap.String("dir", appCfg.StaticDir))
	}

	return r, nil
}

// Hooks wires the contact service into app.Run.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:            "contactform",
	LoadConfig:      LoadConfig,
	ConnectBackends: ConnectBackends,
	Preflight:       Preflight,
	BuildHandler:    BuildHandler,
}
