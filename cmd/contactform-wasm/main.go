//go:build js && wasm

// Command contactform-wasm is the browser form controller. Build it with
// GOOS=js GOARCH=wasm and load it next to wasm_exec.js; it binds every
// form.php-email-form on the page.
package main

import (
	"go.uber.org/zap"

	"github.com/dalemusser/contactform/formclient/dom"
	"github.com/dalemusser/contactform/logging"
)

func main() {
	// wasm_exec.js routes stderr to the browser console.
	logger, err := logging.BuildLogger("info", "dev")
	if err != nil {
		logger = zap.NewNop()
	}

	ctrls, _ := dom.Bind(logger)
	logger.Info("contact forms bound", zap.Int("forms", len(ctrls)))

	select {}
}
