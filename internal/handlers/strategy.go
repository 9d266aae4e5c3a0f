package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/PortNumber53/content-strategy-engine/internal/middleware"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/PortNumber53/content-strategy-engine/internal/pipeline"
)

// GetTrends answers 200 with an empty list and a message when nothing was found.
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	trends, err := h.p.GetTrendsForTopic(r.Context(), topic)
	if err != nil {
		h.fail(w, r, err, "Server Error")
		return
	}
	n := len(trends)
	resp := okResponse{Success: true, Count: &n, Data: trends}
	if n == 0 {
		resp.Message = fmt.Sprintf("Could not find any trends for the topic: %q", topic)
	}
	writeJSON(w, http.StatusOK, resp)
}

type generateStrategyRequest struct {
	TargetAudience string `json:"targetAudience"`
	Topic          string `json:"topic"`
	Goals          string `json:"goals"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
}

func (h *Handler) GenerateStrategy(w http.ResponseWriter, r *http.Request) {
	var body generateStrategyRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	start, err := parseDate(body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.p.GenerateStrategy(r.Context(), middleware.UserID(r.Context()), pipeline.StrategyRequest{
		TargetAudience: body.TargetAudience,
		Topic:          body.Topic,
		Goals:          body.Goals,
		StartDate:      start,
		EndDate:        end,
	})
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not generate strategy.")
		return
	}
	writeData(w, http.StatusCreated, st)
}

func (h *Handler) GeneratePersona(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Audience string `json:"audience"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	persona, err := h.p.GeneratePersona(r.Context(), body.Audience)
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not generate persona.")
		return
	}
	writeData(w, http.StatusOK, persona)
}

func (h *Handler) GenerateIdeas(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topic string `json:"topic"`
		Type  string `json:"type"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	ideas, err := h.p.GenerateIdeas(r.Context(), body.Topic, body.Type)
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not generate ideas.")
		return
	}
	writeData(w, http.StatusOK, ideas)
}

func (h *Handler) ExpandIdea(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title  string `json:"title"`
		Format string `json:"format"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	text, err := h.p.ExpandIdea(r.Context(), body.Title, body.Format)
	if err != nil {
		h.fail(w, r, err, "Server Error")
		return
	}
	writeData(w, http.StatusOK, text)
}

func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	list, err := h.p.ListStrategies(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not fetch strategies.")
		return
	}
	writeList(w, list)
}

func (h *Handler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	st, err := h.p.GetStrategy(r.Context(), middleware.UserID(r.Context()), pathVar(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not fetch strategy.")
		return
	}
	writeData(w, http.StatusOK, st)
}

func (h *Handler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if err := h.p.DeleteStrategy(r.Context(), middleware.UserID(r.Context()), pathVar(r, "id")); err != nil {
		h.fail(w, r, err, "Server Error: Could not delete strategy.")
		return
	}
	writeData(w, http.StatusOK, map[string]any{})
}

type calendarItemRequest struct {
	models.CalendarItemPatch
	Day *int `json:"day"`
}

func (h *Handler) UpdateCalendarItem(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(pathVar(r, "day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Calendar day must be a number.")
		return
	}
	var body calendarItemRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	st, err := h.p.UpdateCalendarItem(r.Context(), middleware.UserID(r.Context()), pathVar(r, "strategyId"), day,
		pipeline.CalendarUpdate{CalendarItemPatch: body.CalendarItemPatch, Day: body.Day})
	if err != nil {
		h.fail(w, r, err, "Server Error: Could not update calendar item.")
		return
	}
	writeData(w, http.StatusOK, st)
}
