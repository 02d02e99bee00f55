package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/pantry/email"
)

func validValues() config.AppConfigValues {
	return config.AppConfigValues{
		"receiving_email_address": "inbox@example.com",
		"smtp_host":               "smtp.example.com",
		"smtp_port":               0,
		"smtp_username":           "relay",
		"smtp_password":           "s3cret",
		"smtp_encryption":         "ssl",
		"from_address":            "noreply@example.com",
		"from_name":               "Example Website",
		"smtp_timeout":            "10s",
		"contact_path":            "",
		"static_dir":              "",
		"health_check_smtp":       "true",
	}
}

func TestNewAppConfig(t *testing.T) {
	t.Parallel()

	cfg, err := newAppConfig(validValues())
	require.NoError(t, err)

	assert.Equal(t, "inbox@example.com", cfg.Recipient)
	assert.Equal(t, "/forms/contact", cfg.ContactPath)
	assert.True(t, cfg.HealthCheckSMTP)
	assert.Equal(t, email.EncryptionSSL, cfg.SMTP.Encryption)
	assert.Equal(t, 10*time.Second, cfg.SMTP.Timeout)
	assert.Equal(t, "Example Website", cfg.SMTP.FromName)
}

func TestNewAppConfig_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	v := validValues()
	v["receiving_email_address"] = ""
	v["smtp_host"] = ""
	v["from_address"] = "not-an-address"
	v["smtp_encryption"] = "rot13"
	v["smtp_port"] = 70000
	v["contact_path"] = "forms/contact"

	_, err := newAppConfig(v)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "app configuration errors")
	assert.Contains(t, msg, "CONTACT_RECEIVING_EMAIL_ADDRESS")
	assert.Contains(t, msg, "CONTACT_SMTP_HOST")
	assert.Contains(t, msg, "from_address must be an email address")
	assert.Contains(t, msg, "smtp_encryption")
	assert.Contains(t, msg, "smtp_port")
	assert.Contains(t, msg, "contact_path")
}

func TestNewAppConfig_PasswordWithoutUser(t *testing.T) {
	t.Parallel()

	v := validValues()
	v["smtp_username"] = ""
	_, err := newAppConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp_password set without smtp_username")
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CONTACT_RECEIVING_EMAIL_ADDRESS", "inbox@example.com")
	t.Setenv("CONTACT_SMTP_HOST", "mail.example.com")
	t.Setenv("CONTACT_SMTP_PORT", "2525")
	t.Setenv("CONTACT_SMTP_ENCRYPTION", "none")
	t.Setenv("CONTACT_FROM_ADDRESS", "noreply@example.com")
	t.Setenv("CONTACTFORM_HTTP_PORT", "9090")

	core, cfg, err := LoadConfig(nil, []string{"--contact_path", "/api/contact"})
	require.NoError(t, err)

	assert.Equal(t, 9090, core.HTTP.HTTPPort)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, email.EncryptionNone, cfg.SMTP.Encryption)
	assert.Equal(t, "/api/contact", cfg.ContactPath)
	assert.Equal(t, 30*time.Second, cfg.SMTP.Timeout)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("CONTACT_RECEIVING_EMAIL_ADDRESS", "")
	t.Setenv("CONTACT_SMTP_HOST", "")
	t.Setenv("CONTACT_FROM_ADDRESS", "")

	_, _, err := LoadConfig(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing:")
}
