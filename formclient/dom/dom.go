//go:build js && wasm

// Package dom binds formclient to HTML forms in the browser.
//
// Every form.php-email-form on the page is wired: its submit event is
// cancelled and handed to a formclient.Controller. Feedback elements are
// the form's .loading, .sent-message and .error-message children, shown by
// adding the d-block class. A data-recaptcha-site-key attribute enables
// reCAPTCHA v3 through the page's grecaptcha object.
package dom

import (
	"context"
	"errors"
	"net/http"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/dalemusser/contactform/formclient"
)

const (
	FormSelector = "form.php-email-form"
	visibleClass = "d-block"
)

// Bind wires every matching form in document and returns their controllers.
// The returned release function removes the listeners.
func Bind(logger *zap.Logger, opts ...formclient.Option) ([]*formclient.Controller, func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc := js.Global().Get("document")
	nodes := doc.Call("querySelectorAll", FormSelector)

	var (
		ctrls []*formclient.Controller
		funcs []js.Func
		forms []js.Value
	)
	for i := 0; i < nodes.Length(); i++ {
		el := nodes.Index(i)
		form := &Form{el: el}
		all := append([]formclient.Option{
			formclient.WithDoer(http.DefaultClient),
			formclient.WithCaptcha(Recaptcha{}),
			formclient.WithLogger(logger),
		}, opts...)
		ctrl := formclient.New(form, all...)

		onSubmit := js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) > 0 {
				args[0].Call("preventDefault")
			}
			// The callback must not block the event loop.
			go func() {
				err := ctrl.Submit(context.Background())
				if errors.Is(err, formclient.ErrSubmitInProgress) {
					logger.Debug("submit ignored; already submitting")
				}
			}()
			return nil
		})
		el.Call("addEventListener", "submit", onSubmit)

		ctrls = append(ctrls, ctrl)
		funcs = append(funcs, onSubmit)
		forms = append(forms, el)
	}

	release := func() {
		for i, fn := range funcs {
			forms[i].Call("removeEventListener", "submit", fn)
			fn.Release()
		}
	}
	return ctrls, release
}

// Form adapts an HTMLFormElement to formclient.Form.
type Form struct {
	el js.Value
}

// Action returns the action attribute resolved against the document's
// base URI, or "" when the attribute is missing or empty. The form's
// action property is not read since a field named "action" shadows it.
func (f *Form) Action() string {
	attr := f.el.Call("getAttribute", "action")
	if attr.IsNull() || attr.String() == "" {
		return ""
	}
	return resolveURL(attr.String())
}

// resolveURL returns ref resolved against document.baseURI, or ref itself
// when the URL constructor rejects it.
func resolveURL(ref string) (href string) {
	defer func() {
		if recover() != nil {
			href = ref
		}
	}()
	base := js.Global().Get("document").Get("baseURI")
	return js.Global().Get("URL").New(ref, base).Get("href").String()
}

func (f *Form) SiteKey() string {
	attr := f.el.Call("getAttribute", "data-recaptcha-site-key")
	if attr.IsNull() {
		return ""
	}
	return attr.String()
}

// Fields reads the form through FormData, so it sees what the browser
// would submit. File inputs are skipped.
func (f *Form) Fields() []formclient.Field {
	fd := js.Global().Get("FormData").New(f.el)
	entries := js.Global().Get("Array").Call("from", fd.Call("entries"))

	out := make([]formclient.Field, 0, entries.Length())
	for i := 0; i < entries.Length(); i++ {
		pair := entries.Index(i)
		value := pair.Index(1)
		if value.Type() != js.TypeString {
			continue
		}
		out = append(out, formclient.Field{Name: pair.Index(0).String(), Value: value.String()})
	}
	return out
}

func (f *Form) Reset() { f.el.Call("reset") }

func (f *Form) Loading() formclient.Element  { return f.child(".loading") }
func (f *Form) Sent() formclient.Element     { return f.child(".sent-message") }
func (f *Form) ErrorBox() formclient.Element { return f.child(".error-message") }

// Alert logs the form to the console and raises a blocking alert.
func (f *Form) Alert(msg string) {
	js.Global().Get("console").Call("error", "Form Error Element not found in form:", f.el)
	js.Global().Call("alert", msg)
}

func (f *Form) child(selector string) formclient.Element {
	el := f.el.Call("querySelector", selector)
	if el.IsNull() || el.IsUndefined() {
		return nil
	}
	return Element{el: el}
}

// Element toggles visibility through the d-block class.
type Element struct {
	el js.Value
}

func (e Element) Show()            { e.el.Get("classList").Call("add", visibleClass) }
func (e Element) Hide()            { e.el.Get("classList").Call("remove", visibleClass) }
func (e Element) SetText(s string) { e.el.Set("textContent", s) }
func (e Element) SetHTML(s string) { e.el.Set("innerHTML", s) }
