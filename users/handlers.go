package users

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/todoapp-go/apperror"
	"github.com/user/todoapp-go/auth"
)

// Handlers exposes the user HTTP endpoints.
type Handlers struct {
	service  *Service
	sessions *auth.SessionManager
}

// NewHandlers creates the user handlers.
func NewHandlers(service *Service, sessions *auth.SessionManager) *Handlers {
	return &Handlers{service: service, sessions: sessions}
}

// RegisterRoutes mounts the user routes. Reads are public; update and
// delete require a session, the CSRF guard, and an id match with the
// caller.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(h.sessions))
		r.Use(auth.RequireCSRF(h.sessions))
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handlers) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, list)
}

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user)
}

// authorizeSelf enforces the id-match rule: the resolved caller must be the
// user named in the path. A mismatch is 403, distinct from the 401 the
// session middleware produces — the caller is known, just not permitted.
func (h *Handlers) authorizeSelf(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
		return "", false
	}
	pathID := chi.URLParam(r, "id")
	if pathID != userID {
		auth.WriteError(w, r, apperror.NewForbiddenError("permission denied", nil))
		return "", false
	}
	return userID, true
}

func (h *Handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizeSelf(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
		return
	}
	defer r.Body.Close()

	user, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user)
}

func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizeSelf(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, auth.MessageResponse{Message: "user and owned todos deleted"})
}
