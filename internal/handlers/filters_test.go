package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mind-insight/apiserver/internal/auth"
)

func filtersTestRouter(t *testing.T) chi.Router {
	t.Helper()

	gate := testGate(t)

	r := chi.NewRouter()
	r.Use(auth.SessionMiddleware([]byte(testJWTSecret)))
	r.Route("/auth", func(r chi.Router) {
		AuthRouter(r, gate, nil, testJWTSecret, time.Hour)
	})
	r.Route("/filters", func(r chi.Router) {
		// Severity needs no lookup store; the SQL-backed dimensions do.
		FiltersRouter(r, nil)
	})
	return r
}

func TestFilterOptionsRequireAuthentication(t *testing.T) {
	router := filtersTestRouter(t)

	rec := getWithToken(router, "/filters/options?dimension=severity", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestFilterOptionsSeverity(t *testing.T) {
	router := filtersTestRouter(t)
	token := loginToken(t, router, "student1")

	rec := getWithToken(router, "/filters/options?dimension=severity", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp FilterOptionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"All", "Info", "Warning", "Critical"}
	if !reflect.DeepEqual(resp.Values, want) {
		t.Fatalf("values = %v, want %v", resp.Values, want)
	}
}

func TestFilterOptionsMissingDimension(t *testing.T) {
	router := filtersTestRouter(t)
	token := loginToken(t, router, "admin1")

	rec := getWithToken(router, "/filters/options", token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
