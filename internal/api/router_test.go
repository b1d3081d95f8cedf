package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/core/service"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
)

func newTestRouter(t *testing.T, adminOnly bool) *echo.Echo {
	t.Helper()
	auth := service.NewAuthService(
		memory.NewUserRepository(),
		service.NewSessionStore(memory.NewSessionRepository()),
		service.NewBcryptHasher(bcrypt.MinCost),
		service.AuthPolicy{},
		zerolog.Nop(),
	)
	return NewRouter(RouterDeps{Auth: auth, Log: zerolog.Nop(), ListUsersAdminOnly: adminOnly})
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

type loginBody struct {
	UserData struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		IsAdmin      bool   `json:"isAdmin"`
		SessionToken string `json:"sessionToken"`
	} `json:"userData"`
}

const registerAlice = `{"username":"alice","fullname":"Alice Doe","email":"alice@example.com","password":"s3cretpass","isAdmin":false}`

func TestRouter_UserLifecycle(t *testing.T) {
	e := newTestRouter(t, false)

	rec := do(e, http.MethodPost, "/api/v1/users", registerAlice, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg != "User is successfully registered" {
		t.Fatalf("register: unexpected message %q", msg)
	}

	rec = do(e, http.MethodPost, "/api/v1/users", registerAlice, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("re-register: expected 400, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["error"]; msg != "User already exists" {
		t.Fatalf("re-register: unexpected error %q", msg)
	}

	rec = do(e, http.MethodPost, "/api/v1/users/login", `{"username":"alice","password":"s3cretpass"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("login response leaks password data: %s", rec.Body.String())
	}
	token := decode[loginBody](t, rec).UserData.SessionToken
	if token == "" {
		t.Fatalf("login: empty session token")
	}

	rec = do(e, http.MethodGet, "/api/v1/users", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	list := decode[struct {
		Users []map[string]any `json:"users"`
	}](t, rec)
	if len(list.Users) != 1 || list.Users[0]["username"] != "alice" {
		t.Fatalf("list: unexpected users %v", list.Users)
	}
	if _, ok := list.Users[0]["password"]; ok {
		t.Fatalf("list: password field present")
	}

	rec = do(e, http.MethodGet, "/api/v1/users/", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list with trailing slash: expected 200, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/api/v1/users/me", "", token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("me: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/api/v1/users/logout", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg != "User is successfully logged out" {
		t.Fatalf("logout: unexpected message %q", msg)
	}

	rec = do(e, http.MethodGet, "/api/v1/users", "", token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("list after logout: expected 401, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["error"]; msg != "Unauthorized" {
		t.Fatalf("list after logout: unexpected error %q", msg)
	}

	rec = do(e, http.MethodPost, "/api/v1/users/logout", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("second logout: expected 200, got %d", rec.Code)
	}
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	e := newTestRouter(t, false)
	do(e, http.MethodPost, "/api/v1/users", registerAlice, "")

	wrong := do(e, http.MethodPost, "/api/v1/users/login", `{"username":"alice","password":"wrongpass"}`, "")
	unknown := do(e, http.MethodPost, "/api/v1/users/login", `{"username":"nobody","password":"wrongpass"}`, "")

	for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if msg := decode[map[string]string](t, rec)["error"]; msg != "Invalid username or password" {
			t.Fatalf("unexpected error %q", msg)
		}
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}
}

func TestRouter_GuardRejections(t *testing.T) {
	e := newTestRouter(t, false)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "unknown token", header: "Bearer not-a-session"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if msg := decode[map[string]string](t, rec)["error"]; msg != "Unauthorized" {
				t.Fatalf("unexpected error %q", msg)
			}
		})
	}
}

func TestRouter_LogoutRequiresHeader(t *testing.T) {
	e := newTestRouter(t, false)

	rec := do(e, http.MethodPost, "/api/v1/users/logout", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_InvalidRegistration(t *testing.T) {
	e := newTestRouter(t, false)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing username", body: `{"password":"s3cretpass"}`},
		{name: "short password", body: `{"username":"bob","password":"short"}`},
		{name: "malformed json", body: `{"username":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/users", tc.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_ListAdminOnly(t *testing.T) {
	e := newTestRouter(t, true)

	do(e, http.MethodPost, "/api/v1/users", registerAlice, "")
	do(e, http.MethodPost, "/api/v1/users",
		`{"username":"root","fullname":"Root","email":"root@example.com","password":"s3cretpass","isAdmin":true}`, "")

	login := func(username string) string {
		rec := do(e, http.MethodPost, "/api/v1/users/login", `{"username":"`+username+`","password":"s3cretpass"}`, "")
		return decode[loginBody](t, rec).UserData.SessionToken
	}

	rec := do(e, http.MethodGet, "/api/v1/users", "", login("alice"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["error"]; msg != "access forbidden" {
		t.Fatalf("non-admin: unexpected error message %q", msg)
	}
	if rec := do(e, http.MethodGet, "/api/v1/users", "", login("root")); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter(t, false)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := do(e, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	e := newTestRouter(t, false)

	rec := do(e, http.MethodGet, "/api/v1/nothing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
}
