// Package formclient drives a contact form: it collects the fields, adds a
// CAPTCHA token when the form asks for one, posts everything as
// multipart/form-data and reflects the outcome in the form's loading,
// success and error elements.
//
// The form itself is abstract. MemoryForm serves native callers and tests;
// the dom subpackage binds real HTML forms under js/wasm.
package formclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	// CaptchaAction is the action name sent with every token request.
	CaptchaAction = "php_email_form_submit"

	// CaptchaField carries the token in the posted payload.
	CaptchaField = "recaptcha-response"

	// successBody is the exact (trimmed) body of an accepted submission.
	successBody = "OK"

	// maxResponseBytes bounds how much of a reply is read.
	maxResponseBytes = 64 << 10
)

// Field is one named form value. Order is preserved on the wire.
type Field struct {
	Name  string
	Value string
}

// Element is a feedback element inside the form.
type Element interface {
	Show()
	Hide()
	SetText(s string)
	SetHTML(s string)
}

// Form is the page-side form the controller operates on. Loading, Sent and
// ErrorBox return nil when the form has no such element.
type Form interface {
	Action() string
	SiteKey() string
	Fields() []Field
	Reset()

	Loading() Element
	Sent() Element
	ErrorBox() Element

	// Alert is the last-resort display, used only when ErrorBox is nil.
	Alert(msg string)
}

// Captcha obtains challenge tokens.
type Captcha interface {
	// Available reports whether the CAPTCHA client library is loaded.
	Available() bool
	Token(ctx context.Context, siteKey, action string) (string, error)
}

// CaptchaFunc adapts a function to Captcha. It is always available.
type CaptchaFunc func(ctx context.Context, siteKey, action string) (string, error)

func (f CaptchaFunc) Available() bool { return true }

func (f CaptchaFunc) Token(ctx context.Context, siteKey, action string) (string, error) {
	return f(ctx, siteKey, action)
}

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Controller submits one form. It allows a single submission at a time and
// is safe for concurrent use.
type Controller struct {
	form    Form
	doer    Doer
	captcha Captcha
	logger  *zap.Logger
	rich    bool

	mu      sync.Mutex
	state   State
	lastErr error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithDoer sets the HTTP client (default http.DefaultClient).
func WithDoer(d Doer) Option {
	return func(c *Controller) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithCaptcha sets the CAPTCHA provider used for forms with a site key.
func WithCaptcha(cp Captcha) Option {
	return func(c *Controller) { c.captcha = cp }
}

// WithLogger sets the logger for errors that have no error element.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRichErrors inserts error messages as markup instead of text. Only use
// it when the endpoint is trusted to return safe HTML.
func WithRichErrors() Option {
	return func(c *Controller) { c.rich = true }
}

// New returns a Controller for form.
func New(form Form, opts ...Option) *Controller {
	c := &Controller{
		form:   form,
		doer:   http.DefaultClient,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last finished submission, if it failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Submit runs one submission to completion and updates the form. It
// returns nil on success, ErrSubmitInProgress when another submission is
// running, and otherwise the error that was displayed.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	c.state = StateSubmitting
	c.lastErr = nil
	c.mu.Unlock()

	err := c.submit(ctx)
	if err != nil {
		c.displayError(err)
	} else {
		hide(c.form.Loading())
		show(c.form.Sent())
		c.form.Reset()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateError
		c.lastErr = err
	} else {
		c.state = StateSuccess
	}
	return err
}

func (c *Controller) submit(ctx context.Context) error {
	action := c.form.Action()
	if action == "" {
		return &ClientConfigError{Message: MsgActionNotSet}
	}

	show(c.form.Loading())
	hide(c.form.ErrorBox())
	hide(c.form.Sent())

	fields := c.form.Fields()
	if siteKey := c.form.SiteKey(); siteKey != "" {
		if c.captcha == nil || !c.captcha.Available() {
			return &ClientConfigError{Message: MsgCaptchaNotLoaded}
		}
		token, err := c.captcha.Token(ctx, siteKey, CaptchaAction)
		if err != nil {
			var ce *CaptchaError
			if errors.As(err, &ce) {
				return ce
			}
			return &CaptchaError{Err: err}
		}
		fields = setField(fields, CaptchaField, token)
	}

	return c.post(ctx, action, fields)
}

func (c *Controller) post(ctx context.Context, action string, fields []Field) error {
	body, contentType, err := encodeMultipart(fields)
	if err != nil {
		return &NetworkError{URL: action, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, body)
	if err != nil {
		return &NetworkError{URL: action, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.doer.Do(req)
	if err != nil {
		return &NetworkError{URL: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     reasonPhrase(resp),
			URL:        responseURL(resp, action),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{URL: action, Err: err}
	}
	text := strings.TrimSpace(string(data))
	if text == successBody {
		return nil
	}
	return &ProtocolError{Body: text}
}

func (c *Controller) displayError(err error) {
	msg := Message(err)
	hide(c.form.Loading())

	box := c.form.ErrorBox()
	if box == nil {
		c.logger.Error("form error element not found", zap.String("action", c.form.Action()), zap.Error(err))
		c.form.Alert(alertPrefix + msg)
		return
	}
	if c.rich {
		box.SetHTML(msg)
	} else {
		box.SetText(msg)
	}
	box.Show()
}

// setField replaces the first field called name and drops the rest, or
// appends it when absent.
func setField(fields []Field, name, value string) []Field {
	out := make([]Field, 0, len(fields)+1)
	found := false
	for _, f := range fields {
		if f.Name != name {
			out = append(out, f)
			continue
		}
		if !found {
			out = append(out, Field{Name: name, Value: value})
			found = true
		}
	}
	if !found {
		out = append(out, Field{Name: name, Value: value})
	}
	return out
}

func encodeMultipart(fields []Field) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// reasonPhrase extracts "Not Found" from "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	if s := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)); s != resp.Status {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return http.StatusText(resp.StatusCode)
}

func responseURL(resp *http.Response, action string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return action
}

func show(e Element) {
	if e != nil {
		e.Show()
	}
}

func hide(e Element) {
	if e != nil {
		e.Hide()
	}
}
