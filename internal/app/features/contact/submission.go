package contact

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/contactform/pantry/email"
	"github.com/dalemusser/contactform/pantry/sanitize"
	"github.com/dalemusser/contactform/pantry/validate"
)

// Posted field names.
const (
	FieldName      = "name"
	FieldEmail     = "email"
	FieldSubject   = "subject"
	FieldMessage   = "message"
	FieldRecaptcha = "recaptcha-response"
)

const bodyIntro = "You have received a new message from your website contact form."

// Submission is one contact form post after sanitization.
type Submission struct {
	Name           string
	Email          string
	Subject        string
	Message        string
	RecaptchaToken string
}

// ParseSubmission reads the posted fields from r, which may be urlencoded
// or multipart. Only the body is consulted, never the query string.
// If the body cannot be parsed the zero Submission is returned with the
// error, and validation then rejects it as incomplete.
func ParseSubmission(r *http.Request, maxMemory int64) (Submission, error) {
	if err := parseBody(r, maxMemory); err != nil {
		return Submission{}, err
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	get := r.PostForm.Get
	return Submission{
		Name:           singleLine(sanitize.Text(get(FieldName))),
		Email:          validate.SanitizeEmail(get(FieldEmail)),
		Subject:        singleLine(sanitize.Text(get(FieldSubject))),
		Message:        sanitize.Text(get(FieldMessage)),
		RecaptchaToken: strings.TrimSpace(get(FieldRecaptcha)),
	}, nil
}

func parseBody(r *http.Request, maxMemory int64) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return fmt.Errorf("contact: parse multipart body: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("contact: parse form body: %w", err)
	}
	return nil
}

// singleLine folds line breaks into spaces. Name and subject end up in
// mail headers.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}

// Validate checks required fields first, then the address.
func (s Submission) Validate() error {
	if s.Name == "" || s.Subject == "" || s.Message == "" {
		return ErrFieldsRequired
	}
	if !validate.EmailValid(s.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// MailSubject is the subject line of the relayed message.
func (s Submission) MailSubject() string {
	return fmt.Sprintf("New contact from %s: %s", s.Name, s.Subject)
}

// MailBody is the plain-text body of the relayed message.
func (s Submission) MailBody() string {
	var b strings.Builder
	b.WriteString(bodyIntro)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Name: %s\n", s.Name)
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "Subject: %s\n\n", s.Subject)
	fmt.Fprintf(&b, "Message:\n%s\n", s.Message)
	return b.String()
}

// Compose builds the message for recipient, with Reply-To set to the
// submitter. The sender identity comes from the mailer's configuration.
func (s Submission) Compose(recipient string) email.Message {
	return email.Message{
		To:       recipient,
		ReplyTo:  email.Address{Name: s.Name, Email: s.Email},
		Subject:  s.MailSubject(),
		TextBody: s.MailBody(),
	}
}
