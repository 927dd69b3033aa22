package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"confluenze-quiz-service/internal/app"
	"confluenze-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. A single
// mutex stands in for the database transaction: Finalize observes and flips
// the status under the same lock that guards the result upsert, so a
// duplicate completion returns the existing Result instead of overwriting it.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]domain.QuizSession
	results   map[string]domain.Result
	order     []string // insertion order for stable listings
	shortlist map[string]domain.ShortlistEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]domain.QuizSession),
		results:   make(map[string]domain.Result),
		shortlist: make(map[string]domain.ShortlistEntry),
	}
}

func (s *SessionStore) Get(_ context.Context, participantID string) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[participantID]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	session.Answers = session.Answers.Clone()
	return session, nil
}

func (s *SessionStore) Create(_ context.Context, session domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Racing starts: the loser keeps the winner's row, like ON CONFLICT DO
	// NOTHING in the postgres tier.
	if _, ok := s.sessions[session.ParticipantID]; ok {
		return nil
	}
	s.order = append(s.order, session.ParticipantID)
	session.Answers = session.Answers.Clone()
	s.sessions[session.ParticipantID] = session
	return nil
}

func (s *SessionStore) MarkStarted(_ context.Context, participantID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[participantID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status != domain.StatusNotStarted {
		return domain.ErrSessionNotActive
	}
	session.Status = domain.StatusInProgress
	session.StartedAt = &startedAt
	s.sessions[participantID] = session
	return nil
}

func (s *SessionStore) SaveProgress(_ context.Context, update domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[update.ParticipantID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status != domain.StatusInProgress {
		return domain.ErrSessionNotActive
	}
	session.Answers = update.Answers.Clone()
	session.CurrentPage = update.CurrentPage
	session.TimeRemaining = update.TimeRemaining
	session.HalfComplete = update.HalfComplete
	session.LastSaved = update.LastSaved
	s.sessions[update.ParticipantID] = session
	return nil
}

func (s *SessionStore) Finalize(_ context.Context, f app.Finalization) (domain.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[f.ParticipantID]
	if !ok {
		return domain.Result{}, false, domain.ErrSessionNotFound
	}
	if session.Status == domain.StatusSubmitted {
		// Lost the race; the stored result stands.
		result, ok := s.results[f.ParticipantID]
		if !ok {
			return domain.Result{}, false, domain.ErrSessionNotFound
		}
		return result, true, nil
	}

	submittedAt := f.SubmittedAt
	session.Status = domain.StatusSubmitted
	session.SubmittedAt = &submittedAt
	session.Answers = f.Answers.Clone()
	session.TimeRemaining = 0
	s.sessions[f.ParticipantID] = session

	result := domain.Result{
		ParticipantID:  f.ParticipantID,
		Score:          f.Score,
		Total:          domain.QuestionCount,
		CompletionTime: f.CompletionTime,
		SubmittedAt:    submittedAt,
	}
	s.results[f.ParticipantID] = result
	return result, false, nil
}

func (s *SessionStore) GetResult(_ context.Context, participantID string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[participantID]
	if !ok {
		return domain.Result{}, domain.ErrSessionNotFound
	}
	return result, nil
}

func (s *SessionStore) ListSessions(_ context.Context) ([]domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]domain.QuizSession, 0, len(s.order))
	for _, participantID := range s.order {
		session := s.sessions[participantID]
		session.Answers = session.Answers.Clone()
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SessionStore) ListResults(_ context.Context) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, 0, len(s.results))
	for _, participantID := range s.order {
		if result, ok := s.results[participantID]; ok {
			results = append(results, result)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CompletionTime < results[j].CompletionTime
	})
	return results, nil
}

func (s *SessionStore) ToggleShortlist(_ context.Context, participantID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shortlist[participantID]; ok {
		delete(s.shortlist, participantID)
		return false, nil
	}
	s.shortlist[participantID] = domain.ShortlistEntry{ParticipantID: participantID, SelectedAt: at}
	return true, nil
}

func (s *SessionStore) ListShortlist(_ context.Context) ([]domain.ShortlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]domain.ShortlistEntry, 0, len(s.shortlist))
	for _, entry := range s.shortlist {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].SelectedAt.Equal(entries[j].SelectedAt) {
			return entries[i].SelectedAt.Before(entries[j].SelectedAt)
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})
	return entries, nil
}
