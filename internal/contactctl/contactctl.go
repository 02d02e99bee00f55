// internal/contactctl/contactctl.go
package contactctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dalemusser/contactform/formclient"
	"github.com/dalemusser/contactform/logging"
	"github.com/dalemusser/contactform/pantry/version"
)

// sentMessage is printed on success, like the page's .sent-message.
const sentMessage = "Your message has been sent. Thank you!"

// Run is the contactctl entrypoint. args exclude the binary name. It
// returns the process exit code: 0 when the submission was accepted.
func Run(binName string, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(binName, stderr)
		return 1
	}

	switch args[0] {
	case "send":
		return sendCmd(binName, args[1:], stdout, stderr, http.DefaultClient)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(binName, stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %q\n\n", args[0])
		usage(binName, stderr)
		return 1
	}
}

func usage(binName string, w io.Writer) {
	fmt.Fprintf(w, "Contact form CLI (%s)\n\n", binName)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s send --action <url> --name <name> --email <addr> --subject <s> --message <m>\n", binName)
	fmt.Fprintf(w, "  %s version\n\n", binName)
	fmt.Fprintln(w, "Example:")
	fmt.Fprintf(w, "  %s send --action http://localhost:8080/forms/contact --name Ada --email ada@example.com --subject Hi --message Hello\n", binName)
}

func sendCmd(binName string, args []string, stdout, stderr io.Writer, doer formclient.Doer) int {
	fs := pflag.NewFlagSet("send", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	action := fs.String("action", "", "Contact endpoint URL")
	name := fs.String("name", "", "Your name")
	addr := fs.String("email", "", "Your email address")
	subject := fs.String("subject", "", "Subject")
	message := fs.String("message", "", "Message text")
	token := fs.String("recaptcha-token", "", "Send this token as recaptcha-response")
	timeout := fs.Duration("timeout", 60*time.Second, "Give up after this long")
	rich := fs.Bool("rich-errors", false, "Treat server replies as markup")
	verbose := fs.BoolP("verbose", "v", false, "Debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s send [flags]\n", binName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.BuildLogger(level, "dev")
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	form := formclient.NewMemoryForm(*action,
		formclient.Field{Name: "name"},
		formclient.Field{Name: "email"},
		formclient.Field{Name: "subject"},
		formclient.Field{Name: "message"},
	)
	form.Set("name", *name)
	form.Set("email", *addr)
	form.Set("subject", *subject)
	form.Set("message", *message)

	opts := []formclient.Option{formclient.WithDoer(doer), formclient.WithLogger(logger)}
	if *token != "" {
		// A placeholder key makes the controller request the token.
		form.RecaptchaSiteKey = "cli"
		fixed := *token
		opts = append(opts, formclient.WithCaptcha(formclient.CaptchaFunc(
			func(context.Context, string, string) (string, error) { return fixed, nil })))
	}
	if *rich {
		opts = append(opts, formclient.WithRichErrors())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ctrl := formclient.New(form, opts...)
	if err := ctrl.Submit(ctx); err != nil {
		logger.Debug("submission failed", zap.Error(err))
		msg, _ := form.ErrorEl.Content()
		fmt.Fprintln(stderr, msg)
		return 1
	}
	fmt.Fprintln(stdout, sentMessage)
	return 0
}
