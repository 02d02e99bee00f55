// Command contactctl submits the contact form from the command line.
package main

import (
	"os"

	"github.com/dalemusser/contactform/internal/contactctl"
)

func main() {
	os.Exit(contactctl.Run("contactctl", os.Args[1:], os.Stdout, os.Stderr))
}
