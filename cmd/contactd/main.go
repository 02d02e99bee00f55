// Command contactd serves the contact form endpoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/contactform/app"
	"github.com/dalemusser/contactform/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
