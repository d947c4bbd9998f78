package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mind-insight/apiserver/internal/audit"
	"github.com/mind-insight/apiserver/internal/auth"
)

// AuthHandler provides login, logout, and session inspection endpoints.
type AuthHandler struct {
	gate     *auth.Gate
	audit    *audit.Publisher
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(gate *auth.Gate, auditPub *audit.Publisher, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthHandler{
		gate:     gate,
		audit:    auditPub,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, gate *auth.Gate, auditPub *audit.Publisher, jwtSecret string, tokenTTL time.Duration) {
	handler := NewAuthHandler(gate, auditPub, jwtSecret, tokenTTL)

	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/me", handler.Me)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	Session SessionView `json:"session"`
}

// SessionView mirrors types.Session for API responses.
type SessionView struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
}

// Login validates credentials and returns a signed session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	session, err := h.gate.Authenticate(req.Username, req.Password)
	if err != nil {
		h.audit.Publish(r.Context(), audit.Event{
			Type:     audit.EventLoginFailed,
			Username: req.Username,
		})
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.IssueToken(session, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	h.audit.Publish(r.Context(), audit.Event{
		Type:     audit.EventLoginSucceeded,
		Username: session.Username,
		Role:     string(session.Role),
	})

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Session: SessionView{
			Authenticated: session.Authenticated,
			Username:      session.Username,
			Role:          string(session.Role),
		},
	})
}

// Logout clears the session. Tokens are stateless, so the cleared session
// is returned for the client to adopt; logging out twice is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	cleared := h.gate.Logout(session)
	writeJSON(w, http.StatusOK, SessionView{Authenticated: cleared.Authenticated})
}

// Me returns the current session state.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if !session.Authenticated {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, SessionView{
		Authenticated: session.Authenticated,
		Username:      session.Username,
		Role:          string(session.Role),
	})
}
