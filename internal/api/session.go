package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/feedlens/feedlens/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string   `json:"token"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func handleLogin(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Username == "" || req.Password == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "username and password are required")
			return
		}

		user, token, err := deps.Auth.Login(req.Username, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid username or password")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "login failed: %v", err)
			return
		}

		if err := deps.Store.LogActivity(user.ID, "login", ""); err != nil {
			slog.Warn("recording login activity failed", "error", err)
		}

		writeJSON(w, loginResponse{
			Token:       token,
			Username:    user.Username,
			Role:        user.Role,
			Permissions: auth.PermissionsForRole(user.Role),
		})
	}
}

func handleLogout(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := requestToken(r)
		if !ok {
			httpError(w, http.StatusUnauthorized, "authentication_error", "no session")
			return
		}
		if err := deps.Auth.Logout(token); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "logout failed: %v", err)
			return
		}
		if user, ok := requestUser(r); ok {
			if err := deps.Store.LogActivity(user.ID, "logout", ""); err != nil {
				slog.Warn("recording logout activity failed", "error", err)
			}
		}
		writeJSON(w, map[string]string{"status": "logged_out"})
	}
}
