package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mind-insight/apiserver/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

func testGate(t *testing.T) *auth.Gate {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secretpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	data := fmt.Sprintf(`users:
  - username: admin1
    password_hash: %q
    role: Admin
  - username: student1
    password_hash: %q
    role: Student
`, hash, hash)

	store, err := auth.ParseCredentials([]byte(data))
	if err != nil {
		t.Fatalf("parse credentials: %v", err)
	}
	return auth.NewGate(store)
}

func authTestRouter(t *testing.T) chi.Router {
	t.Helper()

	r := chi.NewRouter()
	r.Use(auth.SessionMiddleware([]byte(testJWTSecret)))
	r.Route("/auth", func(r chi.Router) {
		AuthRouter(r, testGate(t), nil, testJWTSecret, time.Hour)
	})
	return r
}

func doLogin(t *testing.T, router chi.Router, username, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	router := authTestRouter(t)

	rec := doLogin(t, router, "admin1", "secretpass")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("no token issued")
	}
	if !resp.Session.Authenticated || resp.Session.Username != "admin1" || resp.Session.Role != "Admin" {
		t.Fatalf("session = %+v", resp.Session)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := authTestRouter(t)

	rec := doLogin(t, router, "admin1", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	router := authTestRouter(t)

	rec := doLogin(t, router, "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMeWithToken(t *testing.T) {
	router := authTestRouter(t)

	login := doLogin(t, router, "student1", "secretpass")
	var resp LoginResponse
	if err := json.NewDecoder(login.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var view SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Username != "student1" || view.Role != "Student" {
		t.Fatalf("view = %+v", view)
	}
}

func TestMeWithoutToken(t *testing.T) {
	router := authTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	router := authTestRouter(t)

	login := doLogin(t, router, "admin1", "secretpass")
	var resp LoginResponse
	if err := json.NewDecoder(login.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Authenticated || view.Username != "" {
		t.Fatalf("logout did not clear the session: %+v", view)
	}
}
