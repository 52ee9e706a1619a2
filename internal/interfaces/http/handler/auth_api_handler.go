package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/middleware"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// sessionTTL bounds a dashboard session. CI posts runs with the bearer
// token directly and never logs in, so sessions only back human readers.
const sessionTTL = 8 * time.Hour

// AuthAPIHandler exchanges the ingest token for a dashboard session cookie
type AuthAPIHandler struct {
	authConfig middleware.AuthConfig
	logger     *logger.Logger
}

type loginRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	AuthRequired  bool  `json:"auth_required"`
	Authenticated bool  `json:"authenticated"`
	ExpiresIn     int64 `json:"expires_in,omitempty"`
}

func NewAuthAPIHandler(authConfig middleware.AuthConfig, log *logger.Logger) *AuthAPIHandler {
	return &AuthAPIHandler{
		authConfig: authConfig,
		logger:     log,
	}
}

// Login validates the submitted token and issues the session cookie
func (h *AuthAPIHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authConfig.Enabled {
		middleware.WriteJSON(w, http.StatusOK, sessionResponse{
			AuthRequired:  false,
			Authenticated: true,
		})
		return
	}

	defer r.Body.Close()
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" || token != h.authConfig.BearerToken {
		h.logger.Warn("Auth login failed", "remote_addr", r.RemoteAddr)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	secureCookie := r.TLS != nil
	middleware.WriteAuthCookie(w, token, secureCookie, int(sessionTTL.Seconds()))

	middleware.WriteJSON(w, http.StatusOK, sessionResponse{
		AuthRequired:  true,
		Authenticated: true,
		ExpiresIn:     int64(sessionTTL.Seconds()),
	})
}

// Logout clears the session cookie
func (h *AuthAPIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	secureCookie := r.TLS != nil
	middleware.ClearAuthCookie(w, secureCookie)
	w.WriteHeader(http.StatusNoContent)
}

// Status reports whether the caller holds a valid session or token
func (h *AuthAPIHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := middleware.ValidateRequestAuth(r, h.authConfig)
	middleware.WriteJSON(w, http.StatusOK, sessionResponse{
		AuthRequired:  h.authConfig.Enabled,
		Authenticated: err == nil,
	})
}
