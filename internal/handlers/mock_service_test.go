package handlers

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"passgate/internal/models"
	"passgate/internal/service"
	"passgate/internal/throttle"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser models.User
	registerErr  error
	verifyUser   models.User
	verifyErr    error
	genToken     string
	genTokenErr  error
	parseID      service.Identity
	parseErr     error

	registerCalls  int
	verifyCalls    int
	lastUsername   string
	lastPassword   string
	lastParseToken string
}

func (m *mockAuth) Register(_ context.Context, username, password string) (models.User, error) {
	m.registerCalls++
	m.lastUsername, m.lastPassword = username, password
	return m.registerUser, m.registerErr
}

func (m *mockAuth) Verify(_ context.Context, username, password string) (models.User, error) {
	m.verifyCalls++
	m.lastUsername, m.lastPassword = username, password
	return m.verifyUser, m.verifyErr
}

func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.verifyCalls++
	m.lastUsername, m.lastPassword = username, password
	return m.genToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (service.Identity, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// ---- Shared Test Helpers ----

const testSessionSecret = "handlers-test-session-secret"

func newTestHandler(s *service.Service, limiter throttle.Limiter) *Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, limiter, nil, Options{SessionSecret: testSessionSecret})
}

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestHandler(s, nil).InitRoutes()
}

// browser keeps cookies between requests the way a user agent would.
type browser struct {
	t      *testing.T
	router http.Handler
	jar    *cookiejar.Jar
	base   *url.URL
}

func newBrowser(t *testing.T, router http.Handler) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	base, _ := url.Parse("http://example.com/")
	return &browser{t: t, router: router, jar: jar, base: base}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.jar.Cookies(b.base) {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	b.jar.SetCookies(b.base, w.Result().Cookies())
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path, username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status: got %d, want %d (body=%s)", w.Code, http.StatusFound, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("Location: got %q, want %q", got, location)
	}
}

func httptestRequestWithID(path, id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(requestIDHeader, id)
	return req
}
