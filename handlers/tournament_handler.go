package handlers

import (
	"net/http"

	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	tournaments *services.TournamentService
	prizes      *services.PrizeService
}

func NewTournamentHandler(tournaments *services.TournamentService, prizes *services.PrizeService) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments, prizes: prizes}
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	t, err := h.tournaments.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"tournament": t})
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.tournaments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": t})
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournaments.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	t, err := h.tournaments.UpdateDetails(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": t})
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tournaments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	t, err := h.tournaments.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": t})
}

type submitResultsRequest struct {
	Results []models.Result `json:"results"`
}

func (h *TournamentHandler) SubmitResults(w http.ResponseWriter, r *http.Request) {
	var input submitResultsRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	t, err := h.prizes.SubmitResults(r.Context(), chi.URLParam(r, "id"), input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": t})
}

// UploadBanner accepts a multipart form with a "banner" image file.
func (h *TournamentHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	const maxBannerSize = 5 << 20 // 5MB
	if err := r.ParseMultipartForm(maxBannerSize); err != nil {
		badRequestResponse(w, err)
		return
	}
	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	defer file.Close()

	t, err := h.tournaments.UploadBanner(r.Context(), chi.URLParam(r, "id"), header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": t})
}
