//go:build js && wasm

package dom

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/dalemusser/contactform/formclient"
)

// Recaptcha calls the page's reCAPTCHA v3 client (window.grecaptcha).
type Recaptcha struct{}

func (Recaptcha) Available() bool {
	g := js.Global().Get("grecaptcha")
	return !g.IsUndefined() && !g.IsNull()
}

// Token waits for grecaptcha.ready, then runs grecaptcha.execute and waits
// for its promise. A synchronous throw from execute is reported as an
// execute failure.
func (Recaptcha) Token(ctx context.Context, siteKey, action string) (string, error) {
	type result struct {
		token string
		err   error
	}
	done := make(chan result, 1)
	g := js.Global().Get("grecaptcha")

	var ready, onOK, onErr js.Func
	release := func() {
		ready.Release()
		onOK.Release()
		onErr.Release()
	}

	onOK = js.FuncOf(func(_ js.Value, args []js.Value) any {
		token := ""
		if len(args) > 0 {
			token = args[0].String()
		}
		done <- result{token: token}
		return nil
	})
	onErr = js.FuncOf(func(_ js.Value, args []js.Value) any {
		done <- result{err: &formclient.CaptchaError{Err: jsError(args)}}
		return nil
	})
	ready = js.FuncOf(func(js.Value, []js.Value) any {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("%v", r)
					if jsErr, ok := r.(js.Error); ok {
						err = jsError([]js.Value{jsErr.Value})
					}
					done <- result{err: &formclient.CaptchaError{Err: err, Execute: true}}
				}
			}()
			opts := js.Global().Get("Object").New()
			opts.Set("action", action)
			g.Call("execute", siteKey, opts).Call("then", onOK).Call("catch", onErr)
		}()
		return nil
	})

	g.Call("ready", ready)

	select {
	case r := <-done:
		release()
		return r.token, r.err
	case <-ctx.Done():
		// The callbacks may still fire; they are left allocated.
		return "", ctx.Err()
	}
}

func jsError(args []js.Value) error {
	if len(args) == 0 || args[0].IsUndefined() || args[0].IsNull() {
		return errors.New("undefined")
	}
	return errors.New(js.Global().Call("String", args[0]).String())
}
