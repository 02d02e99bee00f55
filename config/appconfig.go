// config/appconfig.go
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey defines an application configuration key. Apps pass their keys to
// Load, which reads them from config files, environment variables and
// command-line flags with the same precedence as the core keys.
type AppKey struct {
	// Name is used as-is for config files and flags. For env vars it is
	// uppercased and prefixed (e.g. CONTACT_SMTP_HOST).
	Name string

	// Default value. Supported types: string, int, int64, bool, []string.
	Default any

	// Desc is shown in --help output.
	Desc string

	// Secret keys are logged as [REDACTED].
	Secret bool
}

// AppConfigValues holds the loaded app configuration values keyed by AppKey.Name.
type AppConfigValues map[string]any

// String returns a string value or empty string if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Int returns an int value or 0 if not found/wrong type.
// Env and flag values arrive as strings and are parsed here.
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// Bool returns a bool value or false if not found/wrong type.
func (a AppConfigValues) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "yes", "on":
			return true
		}
	}
	return false
}

// StringSlice returns a []string value or nil if not found/wrong type.
// A JSON array string is decoded.
func (a AppConfigValues) StringSlice(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		var arr []string
		if err := json.Unmarshal([]byte(v), &arr); err == nil {
			return arr
		}
	}
	return nil
}

// Duration parses a duration value from the config.
// Accepts duration strings ("10s", "1m30s"), numeric seconds, or numeric
// strings ("30"). Returns def when the key is missing, empty, or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig resolves app keys with flags > env > config files > defaults.
// Config files were already merged into v; fs holds the parsed flags.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) AppConfigValues {
	if len(keys) == 0 {
		return make(AppConfigValues)
	}

	appV := viper.New()
	appV.SetEnvPrefix(envPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		appV.SetDefault(key.Name, key.Default)
		_ = appV.BindEnv(key.Name)

		if v.InConfig(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	result := make(AppConfigValues, len(keys))
	for _, key := range keys {
		result[key.Name] = appV.Get(key.Name)
	}

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		if key.Secret || looksSecret(key.Name) {
			fields = append(fields, zap.String(key.Name, "[REDACTED]"))
			continue
		}
		fields = append(fields, zap.Any(key.Name, result[key.Name]))
	}
	logger.Info("app config loaded", fields...)

	return result
}

func looksSecret(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "secret") ||
		strings.Contains(n, "password") ||
		strings.Contains(n, "token")
}

// registerAppFlags registers command-line flags for app keys on fs.
// It must run before fs.Parse.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case []string:
			fs.String(key.Name, "", key.Desc+" (JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
