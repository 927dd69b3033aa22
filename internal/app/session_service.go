package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"confluenze-quiz-service/internal/domain"
)

// SessionStore abstracts how quiz sessions, results and the shortlist are
// persisted (in-memory, Postgres). Implementations own the atomicity of
// Finalize: the status flip and the result upsert must commit together.
type SessionStore interface {
	Get(ctx context.Context, participantID string) (domain.QuizSession, error)
	Create(ctx context.Context, session domain.QuizSession) error
	// MarkStarted transitions an existing not_started row to in_progress.
	MarkStarted(ctx context.Context, participantID string, startedAt time.Time) error
	// SaveProgress persists answers/page/cache fields; it must refuse the
	// write unless the stored status is still in_progress.
	SaveProgress(ctx context.Context, session domain.QuizSession) error
	// Finalize atomically marks the session submitted, freezes the answers and
	// upserts the Result. When another committer won the race it reports
	// alreadySubmitted=true and returns the existing Result untouched.
	Finalize(ctx context.Context, f Finalization) (result domain.Result, alreadySubmitted bool, err error)
	GetResult(ctx context.Context, participantID string) (domain.Result, error)
	ListSessions(ctx context.Context) ([]domain.QuizSession, error)
	// ListResults returns results ordered by score descending then completion
	// time ascending, with stable relative order on full ties.
	ListResults(ctx context.Context) ([]domain.Result, error)
	ToggleShortlist(ctx context.Context, participantID string, at time.Time) (shortlisted bool, err error)
	ListShortlist(ctx context.Context) ([]domain.ShortlistEntry, error)
}

// QuestionRepository loads the fixed question set (from cache/backing store).
type QuestionRepository interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// EventPublisher fans session events out to admin observers. Publish must
// never block or fail the triggering request.
type EventPublisher interface {
	Publish(event domain.Event)
}

// NopPublisher drops every event; used when no observer hub is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(domain.Event) {}

// Finalization carries the frozen inputs of a submission transaction.
type Finalization struct {
	ParticipantID  string
	Answers        domain.AnswerSet
	Score          int
	CompletionTime int
	SubmittedAt    time.Time
}

// SessionService contains the quiz session lifecycle use cases.
type SessionService struct {
	store     SessionStore
	questions QuestionRepository
	events    EventPublisher
	now       func() time.Time
}

func NewSessionService(store SessionStore, questions QuestionRepository, events EventPublisher) *SessionService {
	return NewSessionServiceWithClock(store, questions, events, time.Now)
}

// NewSessionServiceWithClock allows deterministic timestamps in tests.
func NewSessionServiceWithClock(store SessionStore, questions QuestionRepository, events EventPublisher, now func() time.Time) *SessionService {
	if events == nil {
		events = NopPublisher{}
	}
	return &SessionService{store: store, questions: questions, events: events, now: now}
}

// StartReceipt is returned from Start.
type StartReceipt struct {
	StartedAt time.Time `json:"startedAt"`
}

// ProgressView is the participant-facing snapshot returned by Progress.
type ProgressView struct {
	Status        domain.SessionStatus `json:"status"`
	CurrentPage   int                  `json:"currentPage"`
	Answers       domain.AnswerSet     `json:"answers"`
	TimeRemaining int                  `json:"timeRemaining"`
	HalfComplete  bool                 `json:"halfComplete"`
	Score         *int                 `json:"score,omitempty"`
}

// SaveReceipt is returned from Save.
type SaveReceipt struct {
	Saved         bool `json:"saved"`
	TimeRemaining int  `json:"timeRemaining"`
}

// SubmitReceipt is returned from Submit. AlreadySubmitted flags a duplicate
// call; the score is the previously stored one in that case.
type SubmitReceipt struct {
	Score            int  `json:"score"`
	Total            int  `json:"total"`
	AlreadySubmitted bool `json:"alreadySubmitted"`
}

// Start opens the session, setting started_at exactly once. Resuming an
// in_progress session is a no-op; a submitted session is terminal.
func (s *SessionService) Start(ctx context.Context, participantID string) (StartReceipt, error) {
	now := s.now()

	session, err := s.store.Get(ctx, participantID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		session = domain.QuizSession{
			ParticipantID: participantID,
			Status:        domain.StatusInProgress,
			StartedAt:     &now,
			Answers:       domain.AnswerSet{},
			CurrentPage:   1,
			TimeRemaining: domain.BudgetSeconds,
		}
		if err := s.store.Create(ctx, session); err != nil {
			return StartReceipt{}, err
		}
	case err != nil:
		return StartReceipt{}, err
	default:
		switch session.Status {
		case domain.StatusSubmitted:
			return StartReceipt{}, domain.ErrAlreadySubmitted
		case domain.StatusInProgress:
			// Resume after reload; started_at is immutable.
			return StartReceipt{StartedAt: *session.StartedAt}, nil
		default:
			if err := s.store.MarkStarted(ctx, participantID, now); err != nil {
				return StartReceipt{}, err
			}
		}
	}

	s.events.Publish(domain.Event{Type: domain.EventQuizStarted, ParticipantID: participantID})
	return StartReceipt{StartedAt: now}, nil
}

// Progress is a read that may cause a state transition: when the budget has
// lapsed it triggers the submission transaction with the persisted answers
// before reporting back. A missing session yields a default not_started view
// without creating a row.
func (s *SessionService) Progress(ctx context.Context, participantID string) (ProgressView, error) {
	session, err := s.store.Get(ctx, participantID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return ProgressView{
			Status:        domain.StatusNotStarted,
			CurrentPage:   1,
			Answers:       domain.AnswerSet{},
			TimeRemaining: domain.BudgetSeconds,
		}, nil
	}
	if err != nil {
		return ProgressView{}, err
	}

	view := ProgressView{
		Status:        session.Status,
		CurrentPage:   session.CurrentPage,
		Answers:       session.Answers,
		TimeRemaining: session.TimeRemaining,
		HalfComplete:  session.HalfComplete,
	}

	switch session.Status {
	case domain.StatusInProgress:
		remaining := s.remaining(session)
		if remaining == 0 {
			result, err := s.finalize(ctx, session, session.Answers)
			if err != nil {
				return ProgressView{}, err
			}
			view.Status = domain.StatusSubmitted
			view.TimeRemaining = 0
			view.Score = &result.Score
			return view, nil
		}
		view.TimeRemaining = remaining
	case domain.StatusSubmitted:
		if result, err := s.store.GetResult(ctx, participantID); err == nil {
			view.Score = &result.Score
		}
		view.TimeRemaining = 0
	}
	return view, nil
}

// Save persists the supplied answer mapping and page for an active session.
// Expiry detected here auto-submits the previously persisted answers and the
// save itself is rejected.
func (s *SessionService) Save(ctx context.Context, participantID string, answers domain.AnswerSet, currentPage int) (SaveReceipt, error) {
	if err := answers.Validate(); err != nil {
		return SaveReceipt{}, err
	}
	if currentPage < 1 || currentPage > domain.PageCount {
		return SaveReceipt{}, fmt.Errorf("%w: page %d out of range", domain.ErrValidation, currentPage)
	}

	session, err := s.store.Get(ctx, participantID)
	if err != nil {
		return SaveReceipt{}, err
	}
	if session.Status != domain.StatusInProgress {
		return SaveReceipt{}, domain.ErrSessionNotActive
	}

	remaining := s.remaining(session)
	if remaining == 0 {
		if _, err := s.finalize(ctx, session, session.Answers); err != nil {
			return SaveReceipt{}, err
		}
		return SaveReceipt{}, domain.ErrSessionNotActive
	}

	now := s.now()
	session.Answers = answers.Clone()
	session.CurrentPage = currentPage
	session.TimeRemaining = remaining
	session.HalfComplete = len(answers) >= domain.HalfCompleteThreshold
	session.LastSaved = &now
	if err := s.store.SaveProgress(ctx, session); err != nil {
		return SaveReceipt{}, err
	}

	s.events.Publish(domain.Event{
		Type:          domain.EventProgressUpdate,
		ParticipantID: participantID,
		CurrentPage:   currentPage,
		Answered:      len(answers),
		TimeRemaining: remaining,
	})
	return SaveReceipt{Saved: true, TimeRemaining: remaining}, nil
}

// Submit closes the session with the supplied answers. Duplicate calls return
// the stored score instead of erroring.
func (s *SessionService) Submit(ctx context.Context, participantID string, answers domain.AnswerSet) (SubmitReceipt, error) {
	if err := answers.Validate(); err != nil {
		return SubmitReceipt{}, err
	}

	session, err := s.store.Get(ctx, participantID)
	if err != nil {
		return SubmitReceipt{}, err
	}
	switch session.Status {
	case domain.StatusSubmitted:
		result, err := s.store.GetResult(ctx, participantID)
		if err != nil {
			return SubmitReceipt{}, err
		}
		return SubmitReceipt{Score: result.Score, Total: result.Total, AlreadySubmitted: true}, nil
	case domain.StatusNotStarted:
		return SubmitReceipt{}, domain.ErrSessionNotActive
	}

	result, err := s.finalize(ctx, session, answers)
	if err != nil {
		return SubmitReceipt{}, err
	}
	return SubmitReceipt{Score: result.Score, Total: result.Total, AlreadySubmitted: false}, nil
}

// remaining recomputes the authoritative time budget from started_at and the
// server clock. The persisted TimeRemaining is never trusted for active
// sessions.
func (s *SessionService) remaining(session domain.QuizSession) int {
	if session.StartedAt == nil {
		return domain.BudgetSeconds
	}
	elapsed := int(s.now().Sub(*session.StartedAt).Seconds())
	if elapsed >= domain.BudgetSeconds {
		return 0
	}
	if elapsed < 0 {
		return domain.BudgetSeconds
	}
	return domain.BudgetSeconds - elapsed
}

// finalize runs the submission transaction: score the answers, cap completion
// time at the budget, flip the status and upsert the Result atomically. Only
// the winning committer emits the quiz_submitted event.
func (s *SessionService) finalize(ctx context.Context, session domain.QuizSession, answers domain.AnswerSet) (domain.Result, error) {
	questions, err := s.questions.Questions(ctx)
	if err != nil {
		return domain.Result{}, err
	}

	now := s.now()
	score := Score(questions, answers)
	completion := domain.BudgetSeconds
	if session.StartedAt != nil {
		if elapsed := int(now.Sub(*session.StartedAt).Seconds()); elapsed >= 0 && elapsed < completion {
			completion = elapsed
		}
	}

	result, already, err := s.store.Finalize(ctx, Finalization{
		ParticipantID:  session.ParticipantID,
		Answers:        answers.Clone(),
		Score:          score,
		CompletionTime: completion,
		SubmittedAt:    now,
	})
	if err != nil {
		return domain.Result{}, err
	}
	if !already {
		s.events.Publish(domain.Event{
			Type:          domain.EventQuizSubmitted,
			ParticipantID: session.ParticipantID,
			Score:         &result.Score,
		})
	}
	return result, nil
}
