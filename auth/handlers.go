package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/user/todoapp-go/apperror"
)

// Handlers exposes the auth HTTP endpoints. Besides the service it holds the
// session manager, since register and login set cookies as a side effect.
type Handlers struct {
	service  *AuthService
	sessions *SessionManager
}

// NewHandlers creates the auth handlers.
func NewHandlers(service *AuthService, sessions *SessionManager) *Handlers {
	return &Handlers{service: service, sessions: sessions}
}

// HandleRegister creates a new user and immediately issues a session for it,
// so a fresh registration is also logged in.
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if err := h.sessions.IssueSession(w, user.ID); err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, user.Public())
	}
}

// HandleLogin authenticates the caller and issues fresh session and CSRF
// cookies. No cookies are set on failure.
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		user, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if err := h.sessions.IssueSession(w, user.ID); err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, user.Public())
	}
}

// HandleLogout clears both cookies. It requires no authentication and is
// idempotent: logging out twice succeeds twice.
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.sessions.ClearSession(w)
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
	}
}

// WriteJSON serializes data to the response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError converts any error into the uniform {error, details?} body.
// Errors that are not AppErrors become generic 500s; the underlying cause of
// a server-side failure is logged here and never sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("internal server error", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", appErr.Error(),
		)
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
