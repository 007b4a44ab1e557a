package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/db/zombiezen"
	"github.com/caasmo/notespieces/mail"
	"github.com/caasmo/notespieces/router/gorillamux"
)

// codeMailer keeps the last code sent to every address.
type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) SendOtp(ctx context.Context, to, name, code string, purpose mail.Purpose, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *codeMailer) SendWelcome(ctx context.Context, to, name string) error { return nil }

func (m *codeMailer) code(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[email]
	if !ok {
		t.Fatalf("no code sent to %s", email)
	}
	return code
}

type testServer struct {
	app    *App
	mailer *codeMailer
	store  *zombiezen.Db
	tokens *auth.Tokens
}

// newTestServer wires an App over a temporary sqlite database with the
// default gorilla router and every route registered.
func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := config.NewDefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	provider := config.NewProvider(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := zombiezen.Open(ctx, filepath.Join(t.TempDir(), "core.db"), 2)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mailer := &codeMailer{codes: map[string]string{}}
	tokens := auth.NewTokens(provider)
	svc := auth.NewService(store, tokens, mailer, nil, provider, logger)

	app, err := NewApp(
		WithDb(store),
		WithAuthService(svc),
		WithRouter(gorillamux.New()),
		WithConfigProvider(provider),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	app.RegisterRoutes()

	return &testServer{app: app, mailer: mailer, store: store, tokens: tokens}
}

// do sends a request through the router. body is marshaled to JSON unless
// it is nil.
func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:4321"
	if body != nil {
		req.Header.Set("Content-Type", MimeTypeJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	s.app.Router().ServeHTTP(rr, req)
	return rr
}

// login signs up and verifies email, returning the session cookies.
func (s *testServer) login(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": email, "name": "Ann"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body %s", rr.Code, rr.Body)
	}
	rr = s.do(t, http.MethodPost, "/auth/verify-otp", map[string]string{"email": email, "otp": s.mailer.code(t, email)})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify: status %d body %s", rr.Code, rr.Body)
	}
	return rr.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type errorBody struct {
	Status   int               `json:"status"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	WaitTime int               `json:"waitTime"`
	Details  map[string]string `json:"details"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", rr.Body, err)
	}
	return body
}

// assertError checks status and code of an error response.
func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, strings.TrimSpace(rr.Body.String()))
	}
	body := decodeError(t, rr)
	if body.Code != code {
		t.Fatalf("code = %q, want %q", body.Code, code)
	}
	if body.Status != status {
		t.Errorf("body status = %d, want %d", body.Status, status)
	}
	return body
}

// decodeData unmarshals the data member of a success response into dst.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid body %q: %v", rr.Body, err)
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("invalid data %s: %v", envelope.Data, err)
	}
}
