package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/middleware"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

func newAuthHandler(enabled bool) *AuthAPIHandler {
	return NewAuthAPIHandler(middleware.AuthConfig{
		Enabled:     enabled,
		BearerToken: "ingest-token",
	}, logger.New("error"))
}

func findAuthCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AuthCookieName {
			return c
		}
	}
	return nil
}

func TestAuthAPI_Login(t *testing.T) {
	h := newAuthHandler(true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"token":"ingest-token"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cookie := findAuthCookie(t, rec)
	if cookie == nil {
		t.Fatalf("login did not set the session cookie")
	}
	if cookie.MaxAge != int(sessionTTL.Seconds()) {
		t.Fatalf("cookie MaxAge = %d, want %d", cookie.MaxAge, int(sessionTTL.Seconds()))
	}

	var body sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !body.AuthRequired || !body.Authenticated {
		t.Fatalf("unexpected session response: %+v", body)
	}
	if body.ExpiresIn != int64(sessionTTL.Seconds()) {
		t.Fatalf("ExpiresIn = %d", body.ExpiresIn)
	}
}

func TestAuthAPI_Login_WrongToken(t *testing.T) {
	h := newAuthHandler(true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"token":"guess"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if findAuthCookie(t, rec) != nil {
		t.Fatalf("failed login must not set a cookie")
	}
}

func TestAuthAPI_Login_AuthDisabled(t *testing.T) {
	h := newAuthHandler(false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.AuthRequired || !body.Authenticated {
		t.Fatalf("unexpected session response: %+v", body)
	}
}

func TestAuthAPI_Logout(t *testing.T) {
	h := newAuthHandler(true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	cookie := findAuthCookie(t, rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("logout must expire the session cookie, got %+v", cookie)
	}
}

func TestAuthAPI_Status(t *testing.T) {
	h := newAuthHandler(true)

	// unauthenticated
	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil))

	var body sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !body.AuthRequired || body.Authenticated {
		t.Fatalf("unexpected session response: %+v", body)
	}

	// with the session cookie
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: "ingest-token"})
	rec = httptest.NewRecorder()
	h.Status(rec, req)

	body = sessionResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !body.Authenticated {
		t.Fatalf("cookie session not recognized: %+v", body)
	}
}
