package mail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/quotedprintable"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/caasmo/notespieces/config"
	"github.com/domodwyer/mailyak/v3"
)

// smtpServer accepts a single plain text SMTP session, without STARTTLS,
// and hands the DATA section over on received.
type smtpServer struct {
	listener net.Listener
	received chan string
}

func newSmtpServer(t *testing.T) *smtpServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &smtpServer{listener: l, received: make(chan string, 1)}
	t.Cleanup(func() { _ = l.Close() })
	go s.serve()
	return s
}

func (s *smtpServer) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = io.WriteString(conn, line+"\r\n") }
	reply("220 test ESMTP")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250-test")
			reply("250 AUTH PLAIN")
		case strings.HasPrefix(cmd, "AUTH"):
			reply("235 ok")
		case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
			reply("250 ok")
		case cmd == "DATA":
			reply("354 go ahead")
			var data strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				data.WriteString(l)
			}
			s.received <- data.String()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

func newTestMailer(t *testing.T, addr string) (*Mailer, *config.Config) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	cfg := config.NewDefaultConfig()
	cfg.Smtp.Enabled = true
	cfg.Smtp.Host = host
	cfg.Smtp.Port = port
	cfg.Smtp.Username = "user"
	cfg.Smtp.Password = "secret"
	cfg.Smtp.FromName = "Notes"
	cfg.Smtp.FromAddress = "no-reply@notes.test"
	cfg.Smtp.AppName = "Notes"
	cfg.Smtp.AppURL = "https://notes.test"

	m, err := New(config.NewProvider(cfg))
	if err != nil {
		t.Fatal(err)
	}
	return m, cfg
}

func decode(t *testing.T, s string) string {
	t.Helper()
	b, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(s)))
	if err != nil {
		t.Fatalf("failed to decode quoted-printable: %v", err)
	}
	return string(b)
}

func waitData(t *testing.T, s *smtpServer) string {
	t.Helper()
	select {
	case data := <-s.received:
		return decode(t, data)
	case <-time.After(5 * time.Second):
		t.Fatal("smtp server received nothing")
		return ""
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected message to contain %q, got:\n%s", substr, s)
	}
}

func TestSendOtp(t *testing.T) {
	testCases := []struct {
		purpose     Purpose
		wantSubject string
		wantText    string
	}{
		{PurposeSignup, "Subject: Verify your Notes email", "verify your email address"},
		{PurposeSignin, "Subject: Your Notes sign-in code", "Use this code to sign in"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.purpose), func(t *testing.T) {
			srv := newSmtpServer(t)
			m, _ := newTestMailer(t, srv.listener.Addr().String())

			err := m.SendOtp(context.Background(), "ana@example.com", "Ana", "482913", tc.purpose, 10*time.Minute)
			if err != nil {
				t.Fatalf("SendOtp failed: %v", err)
			}

			data := waitData(t, srv)
			assertContains(t, data, "To: ana@example.com")
			assertContains(t, data, "From: Notes <no-reply@notes.test>")
			assertContains(t, data, tc.wantSubject)
			assertContains(t, data, "482913")
			assertContains(t, data, "expires in 10 minutes")
			assertContains(t, data, tc.wantText)
		})
	}
}

func TestSendWelcome(t *testing.T) {
	srv := newSmtpServer(t)
	m, _ := newTestMailer(t, srv.listener.Addr().String())

	if err := m.SendWelcome(context.Background(), "bo@example.com", "<Bo>"); err != nil {
		t.Fatalf("SendWelcome failed: %v", err)
	}

	data := waitData(t, srv)
	assertContains(t, data, "Subject: Welcome to Notes")
	assertContains(t, data, `href="https://notes.test"`)
	// names are escaped
	assertContains(t, data, "&lt;Bo&gt;")
}

func TestSendTimeout(t *testing.T) {
	m, cfg := newTestMailer(t, "127.0.0.1:25")
	cfg.Smtp.Timeout = config.Duration{Duration: 20 * time.Millisecond}

	m.send = func(ctx context.Context, _ config.Smtp, _ string, _ *mailyak.MailYak) error {
		<-ctx.Done()
		return ctx.Err()
	}

	err := m.SendWelcome(context.Background(), "x@example.com", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

// A server that accepts and never answers must not hold the sender past
// the timeout, and the connection must be gone when SendOtp returns.
func TestSendTimeoutSilentServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	m, cfg := newTestMailer(t, l.Addr().String())
	cfg.Smtp.Timeout = config.Duration{Duration: 100 * time.Millisecond}

	start := time.Now()
	err = m.SendOtp(context.Background(), "x@example.com", "", "123456", PurposeSignin, time.Minute)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("SendOtp returned after %v", elapsed)
	}

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("server never accepted")
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := conn.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("client connection still open after the timeout: %v", err)
	}
}

func TestSendError(t *testing.T) {
	m, _ := newTestMailer(t, "127.0.0.1:25")
	boom := errors.New("connection refused")
	m.send = func(context.Context, config.Smtp, string, *mailyak.MailYak) error { return boom }

	err := m.SendOtp(context.Background(), "x@example.com", "", "123456", PurposeSignin, time.Minute)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped send error, got %v", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("plain send error reported as a timeout: %v", err)
	}
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewLogMailer(logger)

	if err := l.SendOtp(context.Background(), "a@example.com", "", "654321", PurposeSignup, time.Minute); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "654321") {
		t.Errorf("code not logged: %s", buf.String())
	}
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil provider")
	}
}
