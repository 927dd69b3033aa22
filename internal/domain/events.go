package domain

// EventType identifies a live broadcast event.
type EventType string

const (
	EventQuizStarted    EventType = "quiz_started"
	EventProgressUpdate EventType = "progress_update"
	EventQuizSubmitted  EventType = "quiz_submitted"
)

// Event is pushed to subscribed admin observers on every state-changing
// session operation. Delivery is best-effort.
type Event struct {
	Type          EventType `json:"type"`
	ParticipantID string    `json:"participantId"`
	CurrentPage   int       `json:"currentPage,omitempty"`
	Answered      int       `json:"answered,omitempty"`
	TimeRemaining int       `json:"timeRemaining,omitempty"`
	Score         *int      `json:"score,omitempty"`
}
