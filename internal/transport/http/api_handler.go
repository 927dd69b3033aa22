package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"confluenze-quiz-service/internal/app"
	"confluenze-quiz-service/internal/domain"
)

// APIHandler exposes the participant-facing session operations.
type APIHandler struct {
	service *app.SessionService
}

func NewAPIHandler(service *app.SessionService) *APIHandler {
	return &APIHandler{service: service}
}

type savePayload struct {
	Answers     domain.AnswerSet `json:"answers"`
	CurrentPage int              `json:"currentPage"`
}

type submitPayload struct {
	Answers domain.AnswerSet `json:"answers"`
}

func (h *APIHandler) Start(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.Start(r.Context(), participantFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *APIHandler) Progress(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Progress(r.Context(), participantFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) Save(w http.ResponseWriter, r *http.Request) {
	var payload savePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid save payload")
		return
	}
	if payload.CurrentPage == 0 {
		payload.CurrentPage = 1
	}
	receipt, err := h.service.Save(r.Context(), participantFrom(r.Context()), payload.Answers, payload.CurrentPage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *APIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid submit payload")
		return
	}
	receipt, err := h.service.Submit(r.Context(), participantFrom(r.Context()), payload.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Questions serves the bank without the answer key.
func (h *APIHandler) Questions(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Questions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadySubmitted):
		writeJSONError(w, http.StatusBadRequest, "quiz already submitted")
	case errors.Is(err, domain.ErrSessionNotActive):
		writeJSONError(w, http.StatusBadRequest, "quiz session not active")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSONError(w, http.StatusNotFound, "quiz session not found")
	default:
		log.Printf("internal error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
