package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"passgate/internal/models"
	"passgate/internal/service"
	"passgate/internal/throttle"
)

func TestRegister_FailureMessages(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"missing", &service.ValidationError{Message: service.MsgMissingCredentials}, http.StatusBadRequest, "Please enter both username and password"},
		{"short username", &service.ValidationError{Message: service.MsgUsernameTooShort}, http.StatusBadRequest, "Username must be at least 3 characters long"},
		{"short password", &service.ValidationError{Message: service.MsgPasswordTooShort}, http.StatusBadRequest, "Password must be at least 6 characters long"},
		{"duplicate", service.ErrDuplicateUsername, http.StatusConflict, "Username taken, please try another"},
		{"storage", &service.StorageError{Op: "create user", Err: errors.New("disk I/O error at /var/db")}, http.StatusInternalServerError, "Registration failed, please try again"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{registerErr: tc.err}
			b := newBrowser(t, newTestRouter(&service.Service{Authorization: auth}))

			w := b.postForm("/register", "alice", "longpassword")
			if w.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d", w.Code, tc.wantCode)
			}
			body := w.Body.String()
			if !strings.Contains(body, tc.wantMsg) {
				t.Fatalf("body missing %q: %s", tc.wantMsg, body)
			}
			if strings.Contains(body, "disk I/O") {
				t.Fatalf("raw storage error leaked to the page")
			}
			if len(w.Result().Cookies()) != 0 {
				t.Fatalf("failed registration must not issue a session")
			}
		})
	}
}

func TestRegister_SuccessStartsSession(t *testing.T) {
	auth := &mockAuth{registerUser: models.User{ID: 1, Username: "alice"}}
	b := newBrowser(t, newTestRouter(&service.Service{Authorization: auth}))

	w := b.postForm("/register", "alice", "longpassword")
	assertRedirect(t, w, "/dashboard")
	if auth.lastUsername != "alice" || auth.lastPassword != "longpassword" {
		t.Fatalf("form fields not passed through: %q/%q", auth.lastUsername, auth.lastPassword)
	}

	w = b.get("/dashboard")
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Welcome, alice!") {
		t.Fatalf("dashboard does not greet the user: %s", w.Body.String())
	}
}

func TestLogin_FailureMessages(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"missing", &service.ValidationError{Message: service.MsgMissingCredentials}, http.StatusBadRequest, "Please enter both username and password"},
		{"invalid", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{"storage", &service.StorageError{Op: "lookup user", Err: errors.New("database is locked")}, http.StatusInternalServerError, msgLoginFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{verifyErr: tc.err}
			b := newBrowser(t, newTestRouter(&service.Service{Authorization: auth}))

			w := b.postForm("/login", "alice", "whatever1")
			if w.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d", w.Code, tc.wantCode)
			}
			if !strings.Contains(w.Body.String(), tc.wantMsg) {
				t.Fatalf("body missing %q: %s", tc.wantMsg, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "database is locked") {
				t.Fatalf("raw storage error leaked to the page")
			}
		})
	}
}

func TestDashboard_AnonymousRedirectsHome(t *testing.T) {
	b := newBrowser(t, newTestRouter(&service.Service{Authorization: &mockAuth{}}))
	assertRedirect(t, b.get("/dashboard"), "/")
}

func TestHome(t *testing.T) {
	auth := &mockAuth{verifyUser: models.User{ID: 3, Username: "bob"}}
	b := newBrowser(t, newTestRouter(&service.Service{Authorization: auth}))

	w := b.get("/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `action="/login"`) {
		t.Fatalf("anonymous home should render the forms, got %d", w.Code)
	}

	assertRedirect(t, b.postForm("/login", "bob", "secret123"), "/dashboard")
	assertRedirect(t, b.get("/"), "/dashboard")
}

func TestLogout_ClearsIdentity(t *testing.T) {
	auth := &mockAuth{verifyUser: models.User{ID: 3, Username: "bob"}}
	b := newBrowser(t, newTestRouter(&service.Service{Authorization: auth}))

	assertRedirect(t, b.postForm("/login", "bob", "secret123"), "/dashboard")
	if w := b.get("/dashboard"); w.Code != http.StatusOK {
		t.Fatalf("dashboard after login: %d", w.Code)
	}

	assertRedirect(t, b.get("/logout"), "/")
	assertRedirect(t, b.get("/dashboard"), "/")

	// logging out twice is harmless
	assertRedirect(t, b.get("/logout"), "/")
}

func TestLogin_Throttled(t *testing.T) {
	auth := &mockAuth{verifyErr: service.ErrInvalidCredentials}
	limiter := throttle.NewMemory(throttle.Config{MaxAttempts: 2, Window: time.Minute})
	b := newBrowser(t, newTestHandler(&service.Service{Authorization: auth}, limiter).InitRoutes())

	for i := 0; i < 2; i++ {
		if w := b.postForm("/login", "alice", "wrongpass"); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d", i+1, w.Code)
		}
	}

	w := b.postForm("/login", "alice", "wrongpass")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the limit is reached, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgTooManyAttempts) {
		t.Fatalf("body missing throttle message: %s", w.Body.String())
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
	if auth.verifyCalls != 2 {
		t.Fatalf("credentials must not be checked while locked; calls=%d", auth.verifyCalls)
	}
}

func TestLogin_ValidationErrorsDoNotCountTowardsThrottle(t *testing.T) {
	auth := &mockAuth{verifyErr: &service.ValidationError{Message: service.MsgMissingCredentials}}
	limiter := throttle.NewMemory(throttle.Config{MaxAttempts: 1, Window: time.Minute})
	b := newBrowser(t, newTestHandler(&service.Service{Authorization: auth}, limiter).InitRoutes())

	for i := 0; i < 3; i++ {
		if w := b.postForm("/login", "", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: status %d", i+1, w.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}})
	b := newBrowser(t, r)

	w := b.get("/health")
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptestRequestWithID("/health", "abc-123")
	w = b.do(req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id not propagated: %q", got)
	}
}

func TestSwaggerDoc(t *testing.T) {
	b := newBrowser(t, newTestRouter(&service.Service{Authorization: &mockAuth{}}))
	w := b.get("/swagger/doc.json")
	if w.Code != http.StatusOK {
		t.Fatalf("swagger doc status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/api/v1/auth/sign-in") {
		t.Fatalf("swagger doc missing API paths")
	}
}
