package http

import (
	"encoding/json"
	"net/http"

	"confluenze-quiz-service/internal/app"
)

// AdminHandler exposes the monitoring, ranking and shortlist operations.
type AdminHandler struct {
	service *app.SessionService
}

func NewAdminHandler(service *app.SessionService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Participants returns every session with live remaining time.
func (h *AdminHandler) Participants(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *AdminHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Report returns the per-question breakdown for one participant, answer key
// included.
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	participantID := r.PathValue("participantID")
	if participantID == "" {
		writeJSONError(w, http.StatusBadRequest, "participant id required")
		return
	}
	report, err := h.service.Report(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) Shortlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Shortlist(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) ToggleShortlist(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ParticipantID == "" {
		writeJSONError(w, http.StatusBadRequest, "participantId required")
		return
	}
	shortlisted, err := h.service.ToggleShortlist(r.Context(), payload.ParticipantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"shortlisted": shortlisted})
}

// Questions serves the bank with the answer key; admin review screens only.
func (h *AdminHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.QuestionsWithKey(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}
