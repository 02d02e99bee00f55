// pantry/email/email.go
// Package email sends plain-text mail through one SMTP relay.
// It wraps github.com/wneessen/go-mail; connection handling, auth and TLS
// negotiation are go-mail's.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Encryption selects how the connection to the relay is secured.
type Encryption string

const (
	// EncryptionSTARTTLS upgrades a plain connection and refuses to send
	// if the server does not offer STARTTLS. Typical on port 587.
	EncryptionSTARTTLS Encryption = "starttls"
	// EncryptionSSL uses implicit TLS from the first byte. Typical on port 465.
	EncryptionSSL Encryption = "ssl"
	// EncryptionNone sends in the clear. Only for local relays and tests.
	EncryptionNone Encryption = "none"
)

// ParseEncryption maps a config string onto an Encryption value.
// "tls" is accepted as an alias of starttls.
func ParseEncryption(s string) (Encryption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "starttls", "tls":
		return EncryptionSTARTTLS, nil
	case "ssl", "smtps":
		return EncryptionSSL, nil
	case "none", "plain":
		return EncryptionNone, nil
	}
	return "", fmt.Errorf("email: unknown encryption %q (want starttls, ssl or none)", s)
}

var (
	// ErrNoRecipient is returned when a message has no To address.
	ErrNoRecipient = errors.New("email: no recipient specified")
	// ErrEmptyBody is returned when a message has no text body.
	ErrEmptyBody = errors.New("email: message body is empty")
)

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// FromAddress and FromName identify the service as sender. The
	// submitter never appears in From.
	FromAddress string
	FromName    string

	Encryption Encryption

	// Timeout bounds each SMTP operation (default 30s).
	Timeout time.Duration
}

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// Message is one plain-text email to a single recipient.
type Message struct {
	To       string
	ReplyTo  Address
	Subject  string
	TextBody string
}

// Sender delivers messages using Config. It holds no connection between
// calls and is safe for concurrent use.
type Sender struct {
	cfg Config
}

// NewSender applies defaults to cfg and returns a Sender.
// A zero port follows the encryption mode (587, 465 or 25).
func NewSender(cfg Config) *Sender {
	if cfg.Encryption == "" {
		cfg.Encryption = EncryptionSTARTTLS
	}
	if cfg.Port == 0 {
		switch cfg.Encryption {
		case EncryptionSSL:
			cfg.Port = 465
		case EncryptionNone:
			cfg.Port = 25
		default:
			cfg.Port = 587
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Sender{cfg: cfg}
}

// Config returns the effective configuration, defaults applied.
func (s *Sender) Config() Config {
	return s.cfg
}

// Send delivers msg in a single dial-send-quit exchange bounded by ctx and
// the configured timeout. There is no retry.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	c, err := s.client()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

// Ping dials the relay, completes the handshake (and auth, if configured)
// and disconnects without sending anything.
func (s *Sender) Ping(ctx context.Context) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	if err := c.DialWithContext(ctx); err != nil {
		return fmt.Errorf("email: dial %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("email: close: %w", err)
	}
	return nil
}

func (s *Sender) build(msg Message) (*mail.Msg, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, ErrNoRecipient
	}
	if msg.TextBody == "" {
		return nil, ErrEmptyBody
	}

	m := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return nil, fmt.Errorf("email: invalid from address: %w", err)
		}
	} else if err := m.From(s.cfg.FromAddress); err != nil {
		return nil, fmt.Errorf("email: invalid from address: %w", err)
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("email: invalid to address: %w", err)
	}

	if msg.ReplyTo.Email != "" {
		var err error
		if msg.ReplyTo.Name != "" {
			err = m.ReplyToFormat(msg.ReplyTo.Name, msg.ReplyTo.Email)
		} else {
			err = m.ReplyTo(msg.ReplyTo.Email)
		}
		if err != nil {
			return nil, fmt.Errorf("email: invalid reply-to address: %w", err)
		}
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	return m, nil
}

func (s *Sender) client() (*mail.Client, error) {
	// Policy options go first: go-mail adjusts the port when applying
	// them, and the explicit WithPort below must win.
	var opts []mail.Option
	switch s.cfg.Encryption {
	case EncryptionSSL:
		opts = append(opts, mail.WithSSL())
	case EncryptionNone:
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	opts = append(opts,
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("email: failed to create client: %w", err)
	}
	return c, nil
}
