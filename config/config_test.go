package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, _, err := Load(nil, nil, "CONTACT")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HTTP.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBodyBytes)
	assert.Equal(t, []string{"POST"}, cfg.CORS.CORSAllowedMethods)
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("CONTACTFORM_HTTP_PORT", "9000")
	t.Setenv("CONTACTFORM_LOG_LEVEL", "DEBUG")
	t.Setenv("CONTACTFORM_ENABLE_CORS", "true")
	t.Setenv("CONTACTFORM_CORS_ALLOWED_ORIGINS", `["https://www.example.com"]`)
	t.Setenv("CONTACTFORM_WRITE_TIMEOUT", "90")

	cfg, _, err := Load(nil, []string{"--http_port", "9100"}, "CONTACT")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.HTTP.HTTPPort, "explicit flag beats env")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.CORS.EnableCORS)
	assert.Equal(t, []string{"https://www.example.com"}, cfg.CORS.CORSAllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.HTTP.WriteTimeout)
}

func TestLoad_AppKeys(t *testing.T) {
	t.Setenv("CONTACT_SMTP_HOST", "mail.example.com")

	keys := []AppKey{
		{Name: "smtp_host", Default: ""},
		{Name: "smtp_port", Default: 587},
		{Name: "health_check_smtp", Default: false},
		{Name: "smtp_password", Default: "", Secret: true},
	}
	_, values, err := Load(nil, []string{"--smtp_port", "2525", "--health_check_smtp"}, "CONTACT", keys...)
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com", values.String("smtp_host"))
	assert.Equal(t, 2525, values.Int("smtp_port"))
	assert.True(t, values.Bool("health_check_smtp"))
	assert.Equal(t, "", values.String("smtp_password"))
}

func TestLoad_ConflictingAppKey(t *testing.T) {
	_, _, err := Load(nil, nil, "CONTACT", AppKey{Name: "http_port", Default: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts")
}

func TestValidateCoreConfig(t *testing.T) {
	t.Parallel()

	base := CoreConfig{Env: "dev", HTTP: HTTPConfig{HTTPPort: 8080, HTTPSPort: 443}}

	tests := []struct {
		name   string
		mutate func(*CoreConfig)
		want   []string
	}{
		{"valid", func(*CoreConfig) {}, nil},
		{"bad env", func(c *CoreConfig) { c.Env = "staging" }, []string{`env must be "dev" or "prod"`}},
		{"bad log level", func(c *CoreConfig) { c.LogLevel = "loud" }, []string{"log_level must be one of"}},
		{"lets encrypt without https", func(c *CoreConfig) {
			c.TLS.UseLetsEncrypt = true
		}, []string{"requires use_https=true", "CONTACTFORM_DOMAIN", "CONTACTFORM_LETS_ENCRYPT_EMAIL"}},
		{"manual tls without files", func(c *CoreConfig) { c.HTTP.UseHTTPS = true }, []string{"CONTACTFORM_CERT_FILE"}},
		{"cors without origins", func(c *CoreConfig) { c.CORS.EnableCORS = true }, []string{"cors_allowed_origins"}},
		{"wildcard with credentials", func(c *CoreConfig) {
			c.CORS.EnableCORS = true
			c.CORS.CORSAllowedOrigins = []string{"*"}
			c.CORS.CORSAllowCredentials = true
		}, []string{`cannot use "*"`}},
		{"ports", func(c *CoreConfig) {
			c.HTTP.HTTPPort = 0
			c.MaxRequestBodyBytes = -1
		}, []string{"http_port must be in 1..65535", "max_request_body_bytes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := validateCoreConfig(cfg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestJoinProblems(t *testing.T) {
	t.Parallel()

	assert.NoError(t, JoinProblems("x", nil, nil))
	err := JoinProblems("app configuration errors", []string{"A", "B"}, []string{"c is bad"})
	require.Error(t, err)
	assert.Equal(t, "app configuration errors: missing: A, B | invalid: c is bad", err.Error())
}

func TestParseDurationFlexible(t *testing.T) {
	t.Parallel()

	def := 5 * time.Second
	tests := []struct {
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{nil, def, false},
		{"", def, false},
		{"90s", 90 * time.Second, false},
		{"30", 30 * time.Second, false},
		{45, 45 * time.Second, false},
		{"soon", def, true},
	}
	for _, tt := range tests {
		got, err := parseDurationFlexible(tt.raw, def)
		if tt.wantErr {
			assert.Error(t, err, "raw=%v", tt.raw)
		} else {
			assert.NoError(t, err, "raw=%v", tt.raw)
		}
		assert.Equal(t, tt.want, got, "raw=%v", tt.raw)
	}
}
