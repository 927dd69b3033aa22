package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"confluenze-quiz-service/internal/app"
	"confluenze-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SessionStore persists sessions, results and the shortlist in Postgres.
// Finalize wraps the status flip and the result upsert in one transaction;
// the guarded UPDATE on status is the linearization point between concurrent
// explicit submits and expiry-triggered auto-submits.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) Get(ctx context.Context, participantID string) (domain.QuizSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT participant_id, status, started_at, submitted_at, answers,
		       current_page, time_remaining, half_complete, last_saved
		FROM quiz_sessions WHERE participant_id=$1`, participantID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Create(ctx context.Context, session domain.QuizSession) error {
	answers, err := json.Marshal(session.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	// Concurrent starts race to insert; the loser resumes the winner's row.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (participant_id, status, started_at, answers, current_page, time_remaining)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (participant_id) DO NOTHING`,
		session.ParticipantID, session.Status, session.StartedAt, answers, session.CurrentPage, session.TimeRemaining)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) MarkStarted(ctx context.Context, participantID string, startedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quiz_sessions SET status=$2, started_at=$3
		WHERE participant_id=$1 AND status=$4`,
		participantID, domain.StatusInProgress, startedAt, domain.StatusNotStarted)
	if err != nil {
		return fmt.Errorf("mark started: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotActive
	}
	return nil
}

func (s *SessionStore) SaveProgress(ctx context.Context, session domain.QuizSession) error {
	answers, err := json.Marshal(session.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE quiz_sessions
		SET answers=$2, current_page=$3, time_remaining=$4, half_complete=$5, last_saved=$6
		WHERE participant_id=$1 AND status=$7`,
		session.ParticipantID, answers, session.CurrentPage, session.TimeRemaining,
		session.HalfComplete, session.LastSaved, domain.StatusInProgress)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Submitted underneath us (expiry race); the frozen answers stand.
		return domain.ErrSessionNotActive
	}
	return nil
}

func (s *SessionStore) Finalize(ctx context.Context, f app.Finalization) (domain.Result, bool, error) {
	answers, err := json.Marshal(f.Answers)
	if err != nil {
		return domain.Result{}, false, fmt.Errorf("marshal answers: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Result{}, false, fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE quiz_sessions
		SET status=$2, submitted_at=$3, answers=$4, time_remaining=0
		WHERE participant_id=$1 AND status=$5`,
		f.ParticipantID, domain.StatusSubmitted, f.SubmittedAt, answers, domain.StatusInProgress)
	if err != nil {
		return domain.Result{}, false, fmt.Errorf("finalize session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Another committer won; return its result untouched.
		var result domain.Result
		err := tx.QueryRow(ctx, `
			SELECT participant_id, score, total, completion_time, submitted_at
			FROM results WHERE participant_id=$1`, f.ParticipantID).
			Scan(&result.ParticipantID, &result.Score, &result.Total, &result.CompletionTime, &result.SubmittedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Result{}, false, domain.ErrSessionNotFound
		}
		if err != nil {
			return domain.Result{}, false, fmt.Errorf("load existing result: %w", err)
		}
		return result, true, nil
	}

	result := domain.Result{
		ParticipantID:  f.ParticipantID,
		Score:          f.Score,
		Total:          domain.QuestionCount,
		CompletionTime: f.CompletionTime,
		SubmittedAt:    f.SubmittedAt,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO results (participant_id, score, total, completion_time, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (participant_id) DO UPDATE
		SET score=EXCLUDED.score, completion_time=EXCLUDED.completion_time, submitted_at=EXCLUDED.submitted_at`,
		result.ParticipantID, result.Score, result.Total, result.CompletionTime, result.SubmittedAt)
	if err != nil {
		return domain.Result{}, false, fmt.Errorf("upsert result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Result{}, false, fmt.Errorf("commit finalize: %w", err)
	}
	return result, false, nil
}

func (s *SessionStore) GetResult(ctx context.Context, participantID string) (domain.Result, error) {
	var result domain.Result
	err := s.pool.QueryRow(ctx, `
		SELECT participant_id, score, total, completion_time, submitted_at
		FROM results WHERE participant_id=$1`, participantID).
		Scan(&result.ParticipantID, &result.Score, &result.Total, &result.CompletionTime, &result.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

func (s *SessionStore) ListSessions(ctx context.Context) ([]domain.QuizSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT participant_id, status, started_at, submitted_at, answers,
		       current_page, time_remaining, half_complete, last_saved
		FROM quiz_sessions ORDER BY participant_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.QuizSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SessionStore) ListResults(ctx context.Context) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT participant_id, score, total, completion_time, submitted_at
		FROM results
		ORDER BY score DESC, completion_time ASC, submitted_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var result domain.Result
		if err := rows.Scan(&result.ParticipantID, &result.Score, &result.Total, &result.CompletionTime, &result.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (s *SessionStore) ToggleShortlist(ctx context.Context, participantID string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM shortlist WHERE participant_id=$1`, participantID)
	if err != nil {
		return false, fmt.Errorf("shortlist delete: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO shortlist (participant_id, selected_at) VALUES ($1, $2)
		ON CONFLICT (participant_id) DO NOTHING`, participantID, at)
	if err != nil {
		return false, fmt.Errorf("shortlist insert: %w", err)
	}
	return true, nil
}

func (s *SessionStore) ListShortlist(ctx context.Context) ([]domain.ShortlistEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT participant_id, selected_at FROM shortlist
		ORDER BY selected_at ASC, participant_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	defer rows.Close()

	var entries []domain.ShortlistEntry
	for rows.Next() {
		var entry domain.ShortlistEntry
		if err := rows.Scan(&entry.ParticipantID, &entry.SelectedAt); err != nil {
			return nil, fmt.Errorf("scan shortlist: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanSession(row pgx.Row) (domain.QuizSession, error) {
	var (
		session domain.QuizSession
		answers []byte
	)
	err := row.Scan(&session.ParticipantID, &session.Status, &session.StartedAt, &session.SubmittedAt,
		&answers, &session.CurrentPage, &session.TimeRemaining, &session.HalfComplete, &session.LastSaved)
	if err != nil {
		return domain.QuizSession{}, err
	}
	session.Answers = domain.AnswerSet{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &session.Answers); err != nil {
			return domain.QuizSession{}, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	return session, nil
}
