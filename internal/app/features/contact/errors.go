package contact

import (
	"errors"
	"fmt"
)

// Response bodies. Clients match ResponseOK exactly and show anything else
// to the visitor, so these strings are part of the wire contract.
const (
	ResponseOK = "OK"

	MsgMethodNotAllowed = "Invalid request method."
	MsgFieldsRequired   = "Please fill in all required fields."
	MsgInvalidEmail     = "Invalid email format provided."
	MsgDeliveryFailed   = "Message could not be sent. Please try again later or contact us directly."
)

// ErrMethodNotAllowed is reported for anything other than POST.
var ErrMethodNotAllowed = errors.New("contact: method not allowed")

// ValidationError is a submission the visitor has to correct.
// Message is safe to show to the visitor.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	// ErrFieldsRequired means name, subject or message was empty.
	ErrFieldsRequired = &ValidationError{Field: "name,subject,message", Message: MsgFieldsRequired}
	// ErrInvalidEmail means the address failed syntax validation.
	ErrInvalidEmail = &ValidationError{Field: "email", Message: MsgInvalidEmail}
)

// DeliveryError wraps a mailer failure. Its text is for operators only.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("contact: delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
