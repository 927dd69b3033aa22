package domain

import "errors"

var (
	// ErrSessionNotFound is returned when save/submit arrives before start.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned when save/submit is attempted outside in_progress.
	ErrSessionNotActive = errors.New("quiz session not active")
	// ErrAlreadySubmitted is returned when a terminal session is re-entered.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrValidation indicates a malformed answer mapping or page number.
	ErrValidation = errors.New("validation failed")
	// ErrQuestionsNotFound indicates the fixed question set could not be loaded.
	ErrQuestionsNotFound = errors.New("question set not found")
)
