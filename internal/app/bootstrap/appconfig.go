package bootstrap

import (
	"strings"
	"time"

	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/internal/app/features/contact"
	"github.com/dalemusser/contactform/pantry/email"
	"github.com/dalemusser/contactform/pantry/validate"
)

// AppEnvPrefix prefixes app keys in the environment (CONTACT_SMTP_HOST).
const AppEnvPrefix = "CONTACT"

// AppKeys are the service's own configuration keys.
var AppKeys = []config.AppKey{
	{Name: "receiving_email_address", Default: "", Desc: "Inbox that receives every submission"},
	{Name: "smtp_host", Default: "", Desc: "SMTP relay host"},
	{Name: "smtp_port", Default: 0, Desc: "SMTP relay port (0 = 587/465/25 by encryption)"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username (empty disables auth)"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password", Secret: true},
	{Name: "smtp_encryption", Default: "starttls", Desc: "starttls, ssl or none"},
	{Name: "from_address", Default: "", Desc: "Envelope and From address"},
	{Name: "from_name", Default: "", Desc: "From display name"},
	{Name: "smtp_timeout", Default: "30s", Desc: "Timeout for each SMTP operation"},
	{Name: "contact_path", Default: contact.DefaultPath, Desc: "Path of the contact endpoint"},
	{Name: "static_dir", Default: "", Desc: "Serve static files from this directory at /"},
	{Name: "health_check_smtp", Default: false, Desc: "Probe the SMTP relay from /health"},
}

// AppConfig holds the validated service configuration.
type AppConfig struct {
	Recipient   string
	SMTP        email.Config
	ContactPath string
	StaticDir   string

	HealthCheckSMTP bool
}

// newAppConfig builds and validates AppConfig from loaded values. Every
// problem is reported at once.
func newAppConfig(v config.AppConfigValues) (AppConfig, error) {
	var missing, invalid []string

	cfg := AppConfig{
		Recipient:       strings.TrimSpace(v.String("receiving_email_address")),
		ContactPath:     strings.TrimSpace(v.String("contact_path")),
		StaticDir:       strings.TrimSpace(v.String("static_dir")),
		HealthCheckSMTP: v.Bool("health_check_smtp"),
		SMTP: email.Config{
			Host:        strings.TrimSpace(v.String("smtp_host")),
			Port:        v.Int("smtp_port"),
			Username:    v.String("smtp_username"),
			Password:    v.String("smtp_password"),
			FromAddress: strings.TrimSpace(v.String("from_address")),
			FromName:    strings.TrimSpace(v.String("from_name")),
			Timeout:     v.Duration("smtp_timeout", 30*time.Second),
		},
	}

	switch {
	case cfg.Recipient == "":
		missing = append(missing, AppEnvPrefix+"_RECEIVING_EMAIL_ADDRESS (or --receiving_email_address)")
	case !validate.SimpleEmailValid(cfg.Recipient):
		invalid = append(invalid, "receiving_email_address must be an email address")
	}
	if cfg.SMTP.Host == "" {
		missing = append(missing, AppEnvPrefix+"_SMTP_HOST (or --smtp_host)")
	}
	switch {
	case cfg.SMTP.FromAddress == "":
		missing = append(missing, AppEnvPrefix+"_FROM_ADDRESS (or --from_address)")
	case !validate.SimpleEmailValid(cfg.SMTP.FromAddress):
		invalid = append(invalid, "from_address must be an email address")
	}

	enc, err := email.ParseEncryption(v.String("smtp_encryption"))
	if err != nil {
		invalid = append(invalid, "smtp_encryption must be starttls, ssl or none")
	}
	cfg.SMTP.Encryption = enc

	if cfg.SMTP.Port < 0 || cfg.SMTP.Port > 65535 {
		invalid = append(invalid, "smtp_port must be in 0..65535")
	}
	if cfg.SMTP.Username == "" && cfg.SMTP.Password != "" {
		invalid = append(invalid, "smtp_password set without smtp_username")
	}

	if cfg.ContactPath == "" {
		cfg.ContactPath = contact.DefaultPath
	}
	if !strings.HasPrefix(cfg.ContactPath, "/") {
		invalid = append(invalid, `contact_path must start with "/"`)
	}

	if err := config.JoinProblems("app configuration errors", missing, invalid); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
