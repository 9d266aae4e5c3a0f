package handlers

import (
	"net/http"

	"github.com/PortNumber53/content-strategy-engine/internal/middleware"
)

func (h *Handler) AddCompetitor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string `json:"platform"`
		Handle   string `json:"handle"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	c, err := h.p.AddCompetitor(r.Context(), middleware.UserID(r.Context()), body.Platform, body.Handle)
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not add competitor.")
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (h *Handler) ListCompetitors(w http.ResponseWriter, r *http.Request) {
	list, err := h.p.ListCompetitors(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err, "Server Error")
		return
	}
	writeList(w, list)
}

func (h *Handler) RefreshCompetitor(w http.ResponseWriter, r *http.Request) {
	c, err := h.p.RefreshCompetitor(r.Context(), middleware.UserID(r.Context()), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not refresh competitor.")
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *Handler) DeleteCompetitor(w http.ResponseWriter, r *http.Request) {
	if err := h.p.DeleteCompetitor(r.Context(), middleware.UserID(r.Context()), pathVar(r, "id")); err != nil {
		h.fail(w, r, err, "Server Error")
		return
	}
	writeData(w, http.StatusOK, map[string]any{})
}

func (h *Handler) AnalyzeGaps(w http.ResponseWriter, r *http.Request) {
	gaps, err := h.p.AnalyzeGaps(r.Context(), middleware.UserID(r.Context()), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Server Error")
		return
	}
	writeData(w, http.StatusOK, gaps)
}
