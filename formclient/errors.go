package formclient

import (
	"errors"
	"fmt"
)

// Messages shown by the controller. They match what site owners already see
// from the stock contact-form script.
const (
	MsgActionNotSet     = "The form action property is not set!"
	MsgCaptchaNotLoaded = "Error: The reCAPTCHA javascript API url is not loaded!"
	MsgEmptyResponse    = "Form submission failed: Server returned a success status but no error message."
	MsgUnknownError     = "An unknown error occurred."

	// alertPrefix precedes the message in the last-resort alert.
	alertPrefix = "An error occurred: "
)

// ErrSubmitInProgress is returned by Submit while another submission of the
// same form is still running. Nothing is touched in that case.
var ErrSubmitInProgress = errors.New("formclient: submission already in progress")

// ClientConfigError reports a page set up wrongly: no action URL, or a site
// key without the CAPTCHA script loaded. No request is sent.
type ClientConfigError struct {
	Message string
}

func (e *ClientConfigError) Error() string { return e.Message }

// CaptchaError wraps a failure to obtain a CAPTCHA token. Execute marks a
// failure raised while starting the challenge rather than by its result.
type CaptchaError struct {
	Err     error
	Execute bool
}

func (e *CaptchaError) Error() string {
	prefix := "reCAPTCHA error: "
	if e.Execute {
		prefix = "reCAPTCHA execute error: "
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + e.Err.Error()
}

func (e *CaptchaError) Unwrap() error { return e.Err }

// NetworkError is a transport failure: the request never produced a
// response, or the response body could not be read.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a response outside 2xx. Status is the reason phrase
// ("Internal Server Error") and URL the final URL after redirects.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s - %s", e.StatusCode, e.Status, e.URL)
}

// ProtocolError is a 2xx response whose body is not "OK". Body is trimmed
// and usually carries the server's reason.
type ProtocolError struct {
	Body string
}

func (e *ProtocolError) Error() string {
	if e.Body == "" {
		return MsgEmptyResponse
	}
	return e.Body
}

// Message returns the text displayed for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnknownError
}
