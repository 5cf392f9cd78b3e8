package api

import (
	"net/http"

	"folio/internal/auth"
)

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload auth.RegisterRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	session, err := h.auth.Register(r.Context(), payload)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeCreated(w, session)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	if payload.Email == "" || payload.Password == "" {
		h.writeErrorResponse(w, r, badRequest("email and password are required"))
		return
	}
	session, err := h.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, session)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	if payload.RefreshToken == "" {
		h.writeErrorResponse(w, r, badRequest("refreshToken is required"))
		return
	}
	session, err := h.auth.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, session)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), userIDFrom(r)); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccessWithMessage(w, "Logged out", nil)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), userIDFrom(r))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, user)
}
