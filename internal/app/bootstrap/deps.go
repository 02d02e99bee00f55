package bootstrap

import "github.com/dalemusser/contactform/pantry/email"

// Deps holds the backends the service talks to.
type Deps struct {
	Sender *email.Sender
}
