package formclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dalemusser/contactform/formclient"
	"github.com/dalemusser/contactform/internal/app/features/contact"
	"github.com/dalemusser/contactform/pantry/email"
	cftest "github.com/dalemusser/contactform/pantry/testing"
)

// capture records what the endpoint received.
type capture struct {
	mu       sync.Mutex
	requests int
	fields   map[string]string
	xhr      string
}

func (c *capture) record(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	c.xhr = r.Header.Get("X-Requested-With")
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		c.fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			c.fields[k] = v[0]
		}
	}
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

func endpoint(t *testing.T, status int, body string) (*cftest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := cftest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.record(r)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	return srv, c
}

func contactForm(action string) *formclient.MemoryForm {
	f := formclient.NewMemoryForm(action,
		formclient.Field{Name: "name"},
		formclient.Field{Name: "email"},
		formclient.Field{Name: "subject"},
		formclient.Field{Name: "message"},
	)
	f.Set("name", "Ada Lovelace")
	f.Set("email", "ada@example.com")
	f.Set("subject", "Engines")
	f.Set("message", "Notes attached.")
	return f
}

func errorText(t *testing.T, f *formclient.MemoryForm) string {
	t.Helper()
	text, _ := f.ErrorEl.Content()
	return text
}

func TestSubmit_Success(t *testing.T) {
	t.Parallel()

	srv, got := endpoint(t, http.StatusOK, " OK \n")
	f := contactForm(srv.URL + "/forms/contact")
	ctrl := formclient.New(f, formclient.WithDoer(srv.Client()))

	require.NoError(t, ctrl.Submit(cftest.Context(t)))

	assert.Equal(t, formclient.StateSuccess, ctrl.State())
	assert.NoError(t, ctrl.Err())
	assert.True(t, f.SentEl.Visible())
	assert.False(t, f.LoadingEl.Visible())
	assert.False(t, f.ErrorEl.Visible())
	assert.Empty(t, f.Value("name"), "fields reset after success")

	assert.Equal(t, "XMLHttpRequest", got.xhr)
	assert.Equal(t, map[string]string{
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"subject": "Engines",
		"message": "Notes attached.",
	}, got.fields)
}

func TestSubmit_ActionNotSet(t *testing.T) {
	t.Parallel()

	f := contactForm("")
	doer := &countingDoer{}
	ctrl := formclient.New(f, formclient.WithDoer(doer))

	err := ctrl.Submit(cftest.Context(t))
	var cfgErr *formclient.ClientConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, formclient.MsgActionNotSet, errorText(t, f))
	assert.True(t, f.ErrorEl.Visible())
	assert.False(t, f.LoadingEl.Visible())
	assert.Zero(t, doer.calls)
	assert.Equal(t, formclient.StateError, ctrl.State())
}

func TestSubmit_Captcha(t *testing.T) {
	t.Parallel()

	t.Run("library missing", func(t *testing.T) {
		t.Parallel()
		srv, got := endpoint(t, http.StatusOK, "OK")
		f := contactForm(srv.URL)
		f.RecaptchaSiteKey = "site-key"

		err := formclient.New(f, formclient.WithDoer(srv.Client())).Submit(cftest.Context(t))
		var cfgErr *formclient.ClientConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, formclient.MsgCaptchaNotLoaded, errorText(t, f))
		assert.Zero(t, got.count())
	})

	t.Run("token attached", func(t *testing.T) {
		t.Parallel()
		srv, got := endpoint(t, http.StatusOK, "OK")
		f := contactForm(srv.URL)
		f.RecaptchaSiteKey = "site-key"

		var gotKey, gotAction string
		captcha := formclient.CaptchaFunc(func(_ context.Context, key, action string) (string, error) {
			gotKey, gotAction = key, action
			return "tok-123", nil
		})
		ctrl := formclient.New(f, formclient.WithDoer(srv.Client()), formclient.WithCaptcha(captcha))

		require.NoError(t, ctrl.Submit(cftest.Context(t)))
		assert.Equal(t, "site-key", gotKey)
		assert.Equal(t, "php_email_form_submit", gotAction)
		assert.Equal(t, "tok-123", got.fields["recaptcha-response"])
	})

	t.Run("token failure", func(t *testing.T) {
		t.Parallel()
		srv, got := endpoint(t, http.StatusOK, "OK")
		f := contactForm(srv.URL)
		f.RecaptchaSiteKey = "site-key"
		captcha := formclient.CaptchaFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("timeout-or-duplicate")
		})

		err := formclient.New(f, formclient.WithDoer(srv.Client()), formclient.WithCaptcha(captcha)).Submit(cftest.Context(t))
		var capErr *formclient.CaptchaError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, "reCAPTCHA error: timeout-or-duplicate", errorText(t, f))
		assert.Zero(t, got.count())
	})

	t.Run("execute failure", func(t *testing.T) {
		t.Parallel()
		f := contactForm("http://127.0.0.1:1/")
		f.RecaptchaSiteKey = "site-key"
		captcha := formclient.CaptchaFunc(func(context.Context, string, string) (string, error) {
			return "", &formclient.CaptchaError{Err: errors.New("Invalid site key"), Execute: true}
		})

		_ = formclient.New(f, formclient.WithCaptcha(captcha)).Submit(cftest.Context(t))
		assert.Equal(t, "reCAPTCHA execute error: Invalid site key", errorText(t, f))
	})
}

func TestSubmit_ServerResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg func(url string) string
	}{
		{"non-2xx", http.StatusInternalServerError, "boom", func(u string) string { return "500 Internal Server Error - " + u }},
		{"not found", http.StatusNotFound, "", func(u string) string { return "404 Not Found - " + u }},
		{"server reason", http.StatusOK, "  Invalid email format provided.\n", func(string) string { return "Invalid email format provided." }},
		{"empty 2xx", http.StatusOK, "", func(string) string { return formclient.MsgEmptyResponse }},
		{"blank 2xx", http.StatusOK, " \n\t", func(string) string { return formclient.MsgEmptyResponse }},
		{"lowercase ok", http.StatusOK, "ok", func(string) string { return "ok" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, _ := endpoint(t, tt.status, tt.body)
			action := srv.URL + "/forms/contact"
			f := contactForm(action)
			ctrl := formclient.New(f, formclient.WithDoer(srv.Client()))

			err := ctrl.Submit(cftest.Context(t))
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg(action), errorText(t, f))
			assert.True(t, f.ErrorEl.Visible())
			assert.False(t, f.LoadingEl.Visible())
			assert.False(t, f.SentEl.Visible())
			assert.Equal(t, "Ada Lovelace", f.Value("name"), "fields kept on error")
		})
	}
}

func TestSubmit_HTTPErrorFields(t *testing.T) {
	t.Parallel()

	srv, _ := endpoint(t, http.StatusBadGateway, "")
	err := formclient.New(contactForm(srv.URL+"/x"), formclient.WithDoer(srv.Client())).Submit(cftest.Context(t))

	var httpErr *formclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "Bad Gateway", httpErr.Status)
	assert.Equal(t, srv.URL+"/x", httpErr.URL)
}

func TestSubmit_NetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	action := srv.URL
	srv.Close()

	f := contactForm(action)
	err := formclient.New(f).Submit(cftest.Context(t))

	var netErr *formclient.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, action, netErr.URL)
	assert.Equal(t, err.Error(), errorText(t, f))
	assert.NotEmpty(t, errorText(t, f))
}

func TestSubmit_NoErrorElementAlerts(t *testing.T) {
	t.Parallel()

	srv, _ := endpoint(t, http.StatusOK, "Please fill in all required fields.")
	f := contactForm(srv.URL)
	f.ErrorEl = nil
	logger, logs := cftest.ObservedLogger(zapcore.ErrorLevel)

	err := formclient.New(f, formclient.WithDoer(srv.Client()), formclient.WithLogger(logger)).Submit(cftest.Context(t))
	require.Error(t, err)
	assert.Equal(t, []string{"An error occurred: Please fill in all required fields."}, f.Alerts())
	assert.Equal(t, 1, logs.FilterMessage("form error element not found").Len())
}

func TestSubmit_MissingOptionalElements(t *testing.T) {
	t.Parallel()

	srv, _ := endpoint(t, http.StatusOK, "OK")
	f := contactForm(srv.URL)
	f.LoadingEl, f.SentEl = nil, nil

	assert.NoError(t, formclient.New(f, formclient.WithDoer(srv.Client())).Submit(cftest.Context(t)))
}

func TestSubmit_EscapedByDefault(t *testing.T) {
	t.Parallel()

	const markup = "<b>Mailer down</b>"
	srv, _ := endpoint(t, http.StatusOK, markup)

	f := contactForm(srv.URL)
	_ = formclient.New(f, formclient.WithDoer(srv.Client())).Submit(cftest.Context(t))
	text, isHTML := f.ErrorEl.Content()
	assert.Equal(t, markup, text)
	assert.False(t, isHTML)

	f = contactForm(srv.URL)
	_ = formclient.New(f, formclient.WithDoer(srv.Client()), formclient.WithRichErrors()).Submit(cftest.Context(t))
	text, isHTML = f.ErrorEl.Content()
	assert.Equal(t, markup, text)
	assert.True(t, isHTML)
}

func TestSubmit_RejectsConcurrentSubmit(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := &capture{}
	srv := cftest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.record(r)
		<-release
		_, _ = io.WriteString(w, "OK")
	}))
	f := contactForm(srv.URL)
	ctrl := formclient.New(f, formclient.WithDoer(srv.Client()))

	done := make(chan error, 1)
	go func() { done <- ctrl.Submit(cftest.Context(t)) }()

	cftest.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, formclient.StateSubmitting, ctrl.State())
	assert.True(t, f.LoadingEl.Visible())

	assert.ErrorIs(t, ctrl.Submit(cftest.Context(t)), formclient.ErrSubmitInProgress)
	assert.True(t, f.LoadingEl.Visible(), "rejected submit must not touch the UI")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, c.count())
	assert.Equal(t, formclient.StateSuccess, ctrl.State())
}

func TestSubmit_RetryAfterError(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	fail := true
	srv := cftest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			fail = false
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "OK")
	}))
	f := contactForm(srv.URL)
	ctrl := formclient.New(f, formclient.WithDoer(srv.Client()))

	require.Error(t, ctrl.Submit(cftest.Context(t)))
	assert.Equal(t, formclient.StateError, ctrl.State())
	require.NoError(t, ctrl.Submit(cftest.Context(t)))
	assert.False(t, f.ErrorEl.Visible(), "previous error hidden on resubmit")
	assert.True(t, f.SentEl.Visible())
}

func TestSubmit_AgainstContactHandler(t *testing.T) {
	t.Parallel()

	var sent []email.Message
	var mu sync.Mutex
	mailer := mailerFunc(func(_ context.Context, msg email.Message) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, msg)
		return nil
	})
	h := contact.NewHandler(contact.Config{Recipient: "inbox@example.com"}, mailer, nil,
		contact.WithObserver(func(string) {}))
	srv := cftest.NewServer(t, h)

	f := contactForm(srv.URL)
	f.Set("email", "not-an-email")
	ctrl := formclient.New(f, formclient.WithDoer(srv.Client()))
	// A 400 surfaces as status text; the reason body is not shown.
	require.Error(t, ctrl.Submit(cftest.Context(t)))
	assert.Equal(t, "400 Bad Request - "+srv.URL, errorText(t, f))

	f.Set("email", "ada@example.com")
	require.NoError(t, ctrl.Submit(cftest.Context(t)))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Equal(t, "New contact from Ada Lovelace: Engines", sent[0].Subject)
}

func TestMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", formclient.Message(nil))
	assert.Equal(t, formclient.MsgUnknownError, formclient.Message(errors.New("")))
	assert.Equal(t, formclient.MsgUnknownError, formclient.Message(&formclient.NetworkError{}))
	assert.Equal(t, "x", formclient.Message(errors.New("x")))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", formclient.StateIdle.String())
	assert.Equal(t, "submitting", formclient.StateSubmitting.String())
	assert.Equal(t, "success", formclient.StateSuccess.String())
	assert.Equal(t, "error", formclient.StateError.String())
}

type countingDoer struct{ calls int }

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, errors.New("unexpected request")
}

type mailerFunc func(ctx context.Context, msg email.Message) error

func (f mailerFunc) Send(ctx context.Context, msg email.Message) error { return f(ctx, msg) }
