package app

import (
	"context"
	"errors"
	"time"

	"confluenze-quiz-service/internal/domain"
)

// SessionSummary is one row of the admin participant list.
type SessionSummary struct {
	ParticipantID string               `json:"participantId"`
	Status        domain.SessionStatus `json:"status"`
	CurrentPage   int                  `json:"currentPage"`
	TimeRemaining int                  `json:"timeRemaining"`
	AnsweredCount int                  `json:"answeredCount"`
	HalfComplete  bool                 `json:"halfComplete"`
	StartedAt     *time.Time           `json:"startedAt,omitempty"`
	SubmittedAt   *time.Time           `json:"submittedAt,omitempty"`
	Score         *int                 `json:"score,omitempty"`
	Shortlisted   bool                 `json:"shortlisted"`
}

// LeaderboardEntry is one row of the ranked results view.
type LeaderboardEntry struct {
	ParticipantID  string    `json:"participantId"`
	Score          int       `json:"score"`
	Total          int       `json:"total"`
	CompletionTime int       `json:"completionTime"`
	SubmittedAt    time.Time `json:"submittedAt"`
	Shortlisted    bool      `json:"shortlisted"`
}

// AnswerBreakdown pairs one question with a participant's answer.
type AnswerBreakdown struct {
	QuestionID    int      `json:"questionId"`
	Language      string   `json:"language"`
	Code          string   `json:"code"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	UserAnswer    *int     `json:"userAnswer"`
	Correct       bool     `json:"correct"`
}

// ParticipantReport is the detailed per-participant review screen payload.
type ParticipantReport struct {
	ParticipantID string               `json:"participantId"`
	Status        domain.SessionStatus `json:"status"`
	Result        *domain.Result       `json:"result"`
	Breakdown     []AnswerBreakdown    `json:"breakdown"`
}

// ListSessions returns every session with live remaining time, reconciled the
// same way as Progress: expired in_progress rows are auto-submitted during
// this read.
func (s *SessionService) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	shortlisted, err := s.shortlistedSet(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := SessionSummary{
			ParticipantID: session.ParticipantID,
			Status:        session.Status,
			CurrentPage:   session.CurrentPage,
			TimeRemaining: session.TimeRemaining,
			AnsweredCount: session.AnsweredCount(),
			HalfComplete:  session.HalfComplete,
			StartedAt:     session.StartedAt,
			SubmittedAt:   session.SubmittedAt,
			Shortlisted:   shortlisted[session.ParticipantID],
		}

		switch session.Status {
		case domain.StatusInProgress:
			remaining := s.remaining(session)
			if remaining == 0 {
				result, err := s.finalize(ctx, session, session.Answers)
				if err != nil {
					return nil, err
				}
				summary.Status = domain.StatusSubmitted
				summary.TimeRemaining = 0
				summary.Score = &result.Score
				summary.SubmittedAt = &result.SubmittedAt
			} else {
				summary.TimeRemaining = remaining
			}
		case domain.StatusSubmitted:
			summary.TimeRemaining = 0
			if result, err := s.store.GetResult(ctx, session.ParticipantID); err == nil {
				summary.Score = &result.Score
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Leaderboard ranks submitted sessions by score descending, completion time
// ascending; ties keep stable order.
func (s *SessionService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	results, err := s.store.ListResults(ctx)
	if err != nil {
		return nil, err
	}
	shortlisted, err := s.shortlistedSet(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for _, result := range results {
		entries = append(entries, LeaderboardEntry{
			ParticipantID:  result.ParticipantID,
			Score:          result.Score,
			Total:          result.Total,
			CompletionTime: result.CompletionTime,
			SubmittedAt:    result.SubmittedAt,
			Shortlisted:    shortlisted[result.ParticipantID],
		})
	}
	return entries, nil
}

// Report builds the per-question breakdown for one participant, answer key
// included. Admin-scoped.
func (s *SessionService) Report(ctx context.Context, participantID string) (ParticipantReport, error) {
	questions, err := s.questions.Questions(ctx)
	if err != nil {
		return ParticipantReport{}, err
	}

	answers := domain.AnswerSet{}
	status := domain.StatusNotStarted
	session, err := s.store.Get(ctx, participantID)
	if err == nil {
		answers = session.Answers
		status = session.Status
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		return ParticipantReport{}, err
	}

	report := ParticipantReport{ParticipantID: participantID, Status: status}
	if result, err := s.store.GetResult(ctx, participantID); err == nil {
		report.Result = &result
	}

	report.Breakdown = make([]AnswerBreakdown, 0, len(questions))
	for _, q := range questions {
		row := AnswerBreakdown{
			QuestionID:    q.ID,
			Language:      q.Language,
			Code:          q.Code,
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectAnswer: q.Answer,
		}
		if selected, ok := answers[q.ID]; ok {
			v := selected
			row.UserAnswer = &v
			row.Correct = selected == q.Answer
		}
		report.Breakdown = append(report.Breakdown, row)
	}
	return report, nil
}

// ToggleShortlist flips the shortlist marker for a participant.
func (s *SessionService) ToggleShortlist(ctx context.Context, participantID string) (bool, error) {
	return s.store.ToggleShortlist(ctx, participantID, s.now())
}

// Shortlist lists current shortlist entries.
func (s *SessionService) Shortlist(ctx context.Context) ([]domain.ShortlistEntry, error) {
	return s.store.ListShortlist(ctx)
}

// Questions returns the participant-safe question set: no answer key.
func (s *SessionService) Questions(ctx context.Context) ([]domain.QuestionView, error) {
	questions, err := s.questions.Questions(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	return views, nil
}

// QuestionsWithKey returns the full question set for admin review screens.
func (s *SessionService) QuestionsWithKey(ctx context.Context) ([]domain.Question, error) {
	return s.questions.Questions(ctx)
}

func (s *SessionService) shortlistedSet(ctx context.Context) (map[string]bool, error) {
	entries, err := s.store.ListShortlist(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(entries))
	for _, entry := range entries {
		set[entry.ParticipantID] = true
	}
	return set, nil
}
