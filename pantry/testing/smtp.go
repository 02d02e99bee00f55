// testing/smtp.go
package testing

import (
	"bytes"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
)

// ReceivedMail is one message accepted by an SMTPSink.
type ReceivedMail struct {
	From string
	To   []string
	Data []byte
}

// SMTPSink is an in-process SMTP server that keeps every message it
// accepts. It speaks plain SMTP only, so senders must use no encryption.
type SMTPSink struct {
	Host string
	Port int

	srv *smtp.Server

	mu       sync.Mutex
	messages []ReceivedMail
	reject   *smtp.SMTPError
}

// StartSMTPSink listens on a random loopback port and stops at test end.
func StartSMTPSink(t *testing.T) *SMTPSink {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen for smtp sink: %v", err)
	}

	sink := &SMTPSink{}
	srv := smtp.NewServer(sinkBackend{sink: sink})
	srv.Domain = "localhost"
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.MaxMessageBytes = 1 << 20
	srv.MaxRecipients = 10
	sink.srv = srv

	host, port, _ := net.SplitHostPort(l.Addr().String())
	sink.Host = host
	sink.Port, _ = strconv.Atoi(port)

	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })
	return sink
}

// RejectData makes the sink answer DATA with a permanent 554 failure.
func (s *SMTPSink) RejectData(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = &smtp.SMTPError{
		Code:         554,
		EnhancedCode: smtp.EnhancedCode{5, 7, 0},
		Message:      message,
	}
}

// Messages returns a copy of everything accepted so far.
func (s *SMTPSink) Messages() []ReceivedMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReceivedMail, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *SMTPSink) store(m ReceivedMail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject != nil {
		return s.reject
	}
	s.messages = append(s.messages, m)
	return nil
}

type sinkBackend struct {
	sink *SMTPSink
}

func (b sinkBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &sinkSession{sink: b.sink}, nil
}

type sinkSession struct {
	sink *SMTPSink
	cur  ReceivedMail
}

func (s *sinkSession) Mail(from string, _ *smtp.MailOptions) error {
	s.cur.From = from
	return nil
}

func (s *sinkSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.cur.To = append(s.cur.To, to)
	return nil
}

func (s *sinkSession) Data(r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m := s.cur
	m.Data = buf.Bytes()
	return s.sink.store(m)
}

func (s *sinkSession) Reset() {
	s.cur = ReceivedMail{}
}

func (s *sinkSession) Logout() error {
	return nil
}
