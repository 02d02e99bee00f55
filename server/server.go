// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/contactform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context cancelled on SIGINT or SIGTERM.
// The returned cancel function also releases the signal handler.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler until ctx is cancelled or a
// listener fails. Modes, chosen by cfg:
//   - plain HTTP on http_port
//   - HTTPS on https_port with Let's Encrypt (http-01); http_port answers
//     ACME challenges and redirects everything else
//   - HTTPS with cert_file/key_file; http_port redirects
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: cfg is nil")
	}
	if handler == nil {
		return errors.New("server: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, handler, logger)
	httpAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
	httpsAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)

	if !cfg.HTTP.UseHTTPS {
		ln, err := net.Listen("tcp", httpAddr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", httpAddr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		return serve(ctx, cfg.HTTP.ShutdownTimeout, logger, srv, ln, nil)
	}

	var (
		tlsCfg *tls.Config
		aux    *http.Server
	)
	if cfg.TLS.UseLetsEncrypt {
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		aux = newHTTPServer(cfg, m.HTTPHandler(httpRedirectHandler(cfg.HTTP.HTTPSPort)), logger)
		aux.Addr = httpAddr
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate}
	} else {
		if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			var perm *permissionError
			if !errors.As(err, &perm) || cfg.Env == "prod" {
				return err
			}
			logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		aux = newHTTPServer(cfg, httpRedirectHandler(cfg.HTTP.HTTPSPort), logger)
		aux.Addr = httpAddr
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}
	}
	srv.TLSConfig = tlsCfg

	auxErr := make(chan error, 1)
	go func() {
		if err := aux.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			auxErr <- err
			return
		}
		auxErr <- nil
	}()
	logger.Info("HTTP redirect server listening", zap.String("addr", aux.Addr),
		zap.Bool("acme", cfg.TLS.UseLetsEncrypt))

	if cfg.TLS.UseLetsEncrypt {
		if m, ok := unwrapManager(tlsCfg); ok {
			if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
				logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
			}
		}
	}

	baseLn, err := net.Listen("tcp", httpsAddr)
	if err != nil {
		_ = aux.Shutdown(context.Background())
		return fmt.Errorf("listen https %s: %w", httpsAddr, err)
	}
	logger.Info("HTTPS server listening", zap.String("addr", httpsAddr),
		zap.Bool("lets_encrypt", cfg.TLS.UseLetsEncrypt), zap.String("domain", cfg.TLS.Domain))
	return serve(ctx, cfg.HTTP.ShutdownTimeout, logger, srv, tls.NewListener(baseLn, tlsCfg), &auxServer{srv: aux, errc: auxErr})
}

type auxServer struct {
	srv  *http.Server
	errc chan error
}

func newHTTPServer(cfg *config.CoreConfig, h http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

// serve runs srv on ln and blocks until ctx ends or a server fails.
// aux may be nil.
func serve(ctx context.Context, shutdownTimeout time.Duration, logger *zap.Logger, srv *http.Server, ln net.Listener, aux *auxServer) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	// A nil channel never fires, which disables the aux case.
	var auxErr chan error
	if aux != nil {
		auxErr = aux.errc
	}
	stopAux := func(ctx context.Context) {
		if aux != nil {
			_ = aux.srv.Shutdown(ctx)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server…")
			if shutdownTimeout <= 0 {
				shutdownTimeout = 15 * time.Second
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			stopAux(shutdownCtx)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = ln.Close()
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			stopAux(context.Background())
			_ = ln.Close()
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				_ = ln.Close()
				return fmt.Errorf("auxiliary server error: %w", err)
			}
			aux, auxErr = nil, nil
		}
	}
}

// httpRedirectHandler sends every request to the HTTPS origin for the same
// host and path. The Host header is validated to avoid open redirects.
func httpRedirectHandler(httpsPort int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isValidHost(r.Host) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		reqURI := r.URL.RequestURI()
		if !isValidRequestURI(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
			if strings.Contains(host, ":") {
				host = "[" + host + "]"
			}
		}
		if httpsPort != 0 && httpsPort != 443 {
			host += ":" + strconv.Itoa(httpsPort)
		}
		http.Redirect(w, r, "https://"+host+reqURI, http.StatusMovedPermanently)
	})
}

func isValidRequestURI(uri string) bool {
	for _, c := range uri {
		if (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

// isValidHost rejects Host headers that could inject headers or redirect
// elsewhere: control characters, schemes, paths and bad ports.
func isValidHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}

	hostPart, portStr, err := net.SplitHostPort(host)
	if err != nil {
		hostPart = host
	} else if portStr != "" {
		port, perr := strconv.Atoi(portStr)
		if perr != nil || port <= 0 || port > 65535 {
			return false
		}
	}
	if hostPart == "" {
		return false
	}

	if strings.HasPrefix(hostPart, "[") && strings.HasSuffix(hostPart, "]") {
		inner := hostPart[1 : len(hostPart)-1]
		if i := strings.IndexByte(inner, '%'); i != -1 {
			inner = inner[:i]
		}
		if net.ParseIP(inner) == nil {
			return false
		}
	}

	for _, c := range hostPart {
		if c <= 0x20 || c == 0x7f || c == '/' || c == '\\' || c == '@' {
			return false
		}
	}
	return true
}

// permissionError flags a key file readable by group or others.
type permissionError struct {
	path string
	mode os.FileMode
}

func (e *permissionError) Error() string {
	return fmt.Sprintf("TLS key file %s has overly permissive permissions %o (recommended: 0600)", e.path, e.mode)
}

// validateTLSFiles checks that cert and key exist and are files. A loose key
// mode yields a *permissionError so the caller can decide how strict to be.
func validateTLSFiles(certFile, keyFile string) error {
	if strings.TrimSpace(certFile) == "" || strings.TrimSpace(keyFile) == "" {
		return errors.New("manual TLS selected but cert_file / key_file not provided")
	}
	for _, f := range []struct{ kind, path string }{{"certificate", certFile}, {"key", keyFile}} {
		info, err := os.Stat(f.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("TLS %s file does not exist: %s", f.kind, f.path)
			}
			return fmt.Errorf("cannot access TLS %s file %s: %w", f.kind, f.path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path is a directory, not a file: %s", f.kind, f.path)
		}
		if f.kind == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return &permissionError{path: f.path, mode: info.Mode().Perm()}
		}
	}
	return nil
}

// certWaiter is the part of autocert.Manager used by waitForCert.
type certWaiter interface {
	GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error)
}

func unwrapManager(tlsCfg *tls.Config) (certWaiter, bool) {
	if tlsCfg == nil || tlsCfg.GetCertificate == nil {
		return nil, false
	}
	return certFunc(tlsCfg.GetCertificate), true
}

type certFunc func(*tls.ClientHelloInfo) (*tls.Certificate, error)

func (f certFunc) GetCertificate(h *tls.ClientHelloInfo) (*tls.Certificate, error) { return f(h) }

// waitForCert polls until a certificate for host is available, timeout
// elapses or ctx ends.
func waitForCert(ctx context.Context, m certWaiter, host string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for cert for %q: %w", host, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
