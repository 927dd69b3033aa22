package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// BudgetSeconds is the fixed time allowance per quiz session.
	BudgetSeconds = 1800
	// QuestionCount is the size of the fixed question set.
	QuestionCount = 20
	// OptionCount is the number of options every question carries.
	OptionCount = 4
	// PageCount is the number of quiz pages (5 questions each).
	PageCount = 4
	// HalfCompleteThreshold marks a session half complete once this many answers exist.
	HalfCompleteThreshold = 10
)

// SessionStatus is the quiz session state. Transitions are monotonic:
// not_started -> in_progress -> submitted.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusSubmitted  SessionStatus = "submitted"
)

// AnswerSet maps question id (1..20) to the selected option index (0..3).
// Unanswered questions are simply absent. The wire format may carry both keys
// and values as strings, so unmarshalling coerces them to integers.
type AnswerSet map[int]int

func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: answers must be an object", ErrValidation)
	}
	out := make(AnswerSet, len(raw))
	for key, value := range raw {
		questionID, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: question id %q is not numeric", ErrValidation, key)
		}
		option, err := coerceOption(value)
		if err != nil {
			return err
		}
		out[questionID] = option
	}
	*a = out
	return nil
}

func (a AnswerSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(a))
	for questionID, option := range a {
		out[strconv.Itoa(questionID)] = option
	}
	return json.Marshal(out)
}

// Validate rejects out-of-range question ids and option indexes.
func (a AnswerSet) Validate() error {
	for questionID, option := range a {
		if questionID < 1 || questionID > QuestionCount {
			return fmt.Errorf("%w: question id %d out of range", ErrValidation, questionID)
		}
		if option < 0 || option >= OptionCount {
			return fmt.Errorf("%w: option index %d out of range for question %d", ErrValidation, option, questionID)
		}
	}
	return nil
}

// Clone returns an independent copy so stored sessions never alias caller maps.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for questionID, option := range a {
		out[questionID] = option
	}
	return out
}

func coerceOption(raw json.RawMessage) (int, error) {
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return asInt, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if v, err := strconv.Atoi(asString); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: option index %s is not numeric", ErrValidation, string(raw))
}

// QuizSession is the per-participant quiz attempt. One row per participant.
type QuizSession struct {
	ParticipantID string        `json:"participantId"`
	Status        SessionStatus `json:"status"`
	StartedAt     *time.Time    `json:"startedAt,omitempty"`
	SubmittedAt   *time.Time    `json:"submittedAt,omitempty"`
	Answers       AnswerSet     `json:"answers"`
	CurrentPage   int           `json:"currentPage"`
	// TimeRemaining is a cached display value; the authoritative figure is
	// always recomputed from StartedAt and the server clock.
	TimeRemaining int        `json:"timeRemaining"`
	HalfComplete  bool       `json:"halfComplete"`
	LastSaved     *time.Time `json:"lastSaved,omitempty"`
}

// AnsweredCount reports how many questions carry a stored answer.
func (s QuizSession) AnsweredCount() int {
	return len(s.Answers)
}

// Result is created exactly once per participant by the submission transaction.
type Result struct {
	ParticipantID  string    `json:"participantId"`
	Score          int       `json:"score"`
	Total          int       `json:"total"`
	CompletionTime int       `json:"completionTime"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// ShortlistEntry marks a participant selected by an administrator.
type ShortlistEntry struct {
	ParticipantID string    `json:"participantId"`
	SelectedAt    time.Time `json:"selectedAt"`
}

// Question is one item from the fixed debugging bank. Answer is the correct
// option index and must never reach non-admin clients.
type Question struct {
	ID       int      `json:"id"`
	Language string   `json:"language"`
	Code     string   `json:"code"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// QuestionView is the participant-safe projection of a Question.
type QuestionView struct {
	ID       int      `json:"id"`
	Language string   `json:"language"`
	Code     string   `json:"code"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
}

// View strips the answer key.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Language: q.Language, Code: q.Code, Prompt: q.Prompt, Options: q.Options}
}
