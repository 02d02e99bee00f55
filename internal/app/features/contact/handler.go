// Package contact is the contact form endpoint: it validates a posted
// submission and relays it to one inbox by SMTP.
package contact

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/contactform/httputil"
	"github.com/dalemusser/contactform/logging"
	"github.com/dalemusser/contactform/metrics"
	"github.com/dalemusser/contactform/pantry/email"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultPath is where the endpoint is mounted unless configured otherwise.
const DefaultPath = "/forms/contact"

// defaultMaxMemory is the in-memory share of a multipart body; anything
// beyond it spills to temp files until the body size limit is hit.
const defaultMaxMemory = 1 << 20

// Mailer delivers one composed message. *email.Sender implements it.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// Config is fixed at startup.
type Config struct {
	// Recipient is the single inbox every submission goes to.
	Recipient string

	// MaxMemory bounds multipart parsing (default 1 MiB).
	MaxMemory int64
}

// Handler serves the contact endpoint. It keeps no per-request state.
type Handler struct {
	cfg      Config
	mailer   Mailer
	logger   *zap.Logger
	operator *zap.Logger
	observe  func(result string)
}

// Option customizes a Handler.
type Option func(*Handler)

// WithObserver replaces the outcome hook (metrics.ObserveSubmission).
func WithObserver(fn func(result string)) Option {
	return func(h *Handler) {
		if fn != nil {
			h.observe = fn
		}
	}
}

// NewHandler returns a Handler that relays through mailer.
func NewHandler(cfg Config, mailer Mailer, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxMemory <= 0 {
		cfg.MaxMemory = defaultMaxMemory
	}
	h := &Handler{
		cfg:      cfg,
		mailer:   mailer,
		logger:   logger.Named("contact"),
		operator: logging.Operator(logger),
		observe:  metrics.ObserveSubmission,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers h at path for every method, so that non-POST requests
// get the endpoint's own 405 rather than the router's.
func Mount(r chi.Router, path string, h *Handler) {
	if path == "" {
		path = DefaultPath
	}
	r.Handle(path, h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if r.Method != http.MethodPost {
		h.observe(metrics.ResultMethodNotAllowed)
		w.Header().Set("Allow", http.MethodPost)
		httputil.WriteText(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	sub, err := ParseSubmission(r, h.cfg.MaxMemory)
	if err != nil {
		h.logger.Debug("unreadable contact body", zap.String("request_id", reqID), zap.Error(err))
	}
	h.logger.Debug("contact submission received",
		zap.String("request_id", reqID),
		zap.Bool("recaptcha_token", sub.RecaptchaToken != ""),
	)

	if err := sub.Validate(); err != nil {
		h.observe(metrics.ResultInvalid)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			ve = ErrFieldsRequired
		}
		h.logger.Info("contact submission rejected",
			zap.String("request_id", reqID),
			zap.String("field", ve.Field))
		httputil.WriteText(w, http.StatusBadRequest, ve.Message)
		return
	}

	if err := h.deliver(r.Context(), sub); err != nil {
		h.observe(metrics.ResultDeliveryFailed)
		h.operator.Error("mailer error",
			zap.String("request_id", reqID),
			zap.Error(err))
		httputil.WriteText(w, http.StatusInternalServerError, MsgDeliveryFailed)
		return
	}

	h.observe(metrics.ResultOK)
	h.logger.Info("contact message relayed", zap.String("request_id", reqID))
	httputil.WriteText(w, http.StatusOK, ResponseOK)
}

// deliver makes exactly one attempt.
func (h *Handler) deliver(ctx context.Context, sub Submission) error {
	if h.mailer == nil {
		return &DeliveryError{Err: errors.New("no mailer configured")}
	}
	if err := h.mailer.Send(ctx, sub.Compose(h.cfg.Recipient)); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}
