package handlers

import (
	"net/http"

	"github.com/ffarena/tournament-engine/middleware"
	"github.com/ffarena/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

type RegistrationHandler struct {
	registrations *services.RegistrationService
}

func NewRegistrationHandler(registrations *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Register admits the authenticated player into the tournament. The player
// id comes from the verified identity, never from the request body.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, "missing identity")
		return
	}

	t, err := h.registrations.Register(r.Context(), chi.URLParam(r, "id"), identity.Subject)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"tournament": t})
}

func (h *RegistrationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, "missing identity")
		return
	}

	t, err := h.registrations.Withdraw(r.Context(), chi.URLParam(r, "id"), identity.Subject)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": t})
}
