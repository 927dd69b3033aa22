package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"confluenze-quiz-service/internal/app"
	"confluenze-quiz-service/internal/domain"
	"confluenze-quiz-service/internal/infra/memory"
)

// testClock is a mutable wall clock for deterministic timer tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher captures broadcast events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) byType(t domain.EventType) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*app.SessionService, *testClock, *recordingPublisher) {
	t.Helper()
	clock := newTestClock()
	events := &recordingPublisher{}
	store := memory.NewSessionStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(memory.DefaultQuestionBank()), time.Minute)
	service := app.NewSessionServiceWithClock(store, questions, events, clock.Now)
	return service, clock, events
}

func allCorrect() domain.AnswerSet {
	answers := domain.AnswerSet{}
	for _, q := range memory.DefaultQuestionBank() {
		answers[q.ID] = q.Answer
	}
	return answers
}

func TestStartIsIdempotentWhileInProgress(t *testing.T) {
	ctx := context.Background()
	service, clock, events := newTestService(t)

	first, err := service.Start(ctx, "team-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(42 * time.Second)
	second, err := service.Start(ctx, "team-1")
	if err != nil {
		t.Fatalf("resume start: %v", err)
	}
	if !second.StartedAt.Equal(first.StartedAt) {
		t.Fatalf("started_at changed on resume: %v vs %v", second.StartedAt, first.StartedAt)
	}
	if got := len(events.byType(domain.EventQuizStarted)); got != 1 {
		t.Fatalf("expected one quiz_started event, got %d", got)
	}
}

func TestStartAfterSubmitFails(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Submit(ctx, "team-1", domain.AnswerSet{1: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.Start(ctx, "team-1"); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestProgressSynthesizesDefaultView(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	view, err := service.Progress(ctx, "nobody")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if view.Status != domain.StatusNotStarted {
		t.Fatalf("expected not_started, got %s", view.Status)
	}
	if view.TimeRemaining != domain.BudgetSeconds || len(view.Answers) != 0 || view.CurrentPage != 1 {
		t.Fatalf("unexpected default view: %+v", view)
	}

	// A synthesized view must not create a row.
	if _, err := service.Save(ctx, "nobody", domain.AnswerSet{1: 0}, 1); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after synthesized progress, got %v", err)
	}
}

func TestSaveRequiresActiveSession(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	if _, err := service.Save(ctx, "team-1", domain.AnswerSet{1: 0}, 1); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound before start, got %v", err)
	}

	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Submit(ctx, "team-1", domain.AnswerSet{}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := service.Save(ctx, "team-1", domain.AnswerSet{1: 0}, 1); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive after submit, got %v", err)
	}

	// The frozen answers must be untouched by the rejected save.
	view, err := service.Progress(ctx, "team-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(view.Answers) != 0 {
		t.Fatalf("rejected save mutated stored answers: %+v", view.Answers)
	}
}

func TestSaveRejectsMalformedAnswers(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Save(ctx, "team-1", domain.AnswerSet{21: 0}, 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for question 21, got %v", err)
	}
	if _, err := service.Save(ctx, "team-1", domain.AnswerSet{1: 4}, 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for option 4, got %v", err)
	}
	if _, err := service.Save(ctx, "team-1", domain.AnswerSet{1: 0}, 5); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for page 5, got %v", err)
	}
}

func TestSaveRecomputesRemainingTime(t *testing.T) {
	ctx := context.Background()
	service, clock, events := newTestService(t)

	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(90 * time.Second)

	receipt, err := service.Save(ctx, "team-1", domain.AnswerSet{1: 1, 2: 0}, 2)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if receipt.TimeRemaining != domain.BudgetSeconds-90 {
		t.Fatalf("expected %d remaining, got %d", domain.BudgetSeconds-90, receipt.TimeRemaining)
	}

	updates := events.byType(domain.EventProgressUpdate)
	if len(updates) != 1 || updates[0].Answered != 2 || updates[0].CurrentPage != 2 {
		t.Fatalf("unexpected progress_update events: %+v", updates)
	}
}

// Scenario: start at T0, save two answers at T0+5s, fetch progress at
// T0+1800s. The read itself must auto-submit the persisted answers and report
// a capped completion time.
func TestProgressAutoSubmitsOnExpiry(t *testing.T) {
	ctx := context.Background()
	service, clock, events := newTestService(t)

	bank := memory.DefaultQuestionBank()
	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(5 * time.Second)
	saved := domain.AnswerSet{1: bank[0].Answer, 2: (bank[1].Answer + 1) % domain.OptionCount}
	if _, err := service.Save(ctx, "team-1", saved, 1); err != nil {
		t.Fatalf("save: %v", err)
	}

	clock.Advance(time.Duration(domain.BudgetSeconds-5) * time.Second)
	view, err := service.Progress(ctx, "team-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if view.Status != domain.StatusSubmitted {
		t.Fatalf("expected submitted after expiry, got %s", view.Status)
	}
	if view.Score == nil || *view.Score != 1 {
		t.Fatalf("expected score 1 from saved answers, got %+v", view.Score)
	}

	submitted := events.byType(domain.EventQuizSubmitted)
	if len(submitted) != 1 || submitted[0].Score == nil || *submitted[0].Score != 1 {
		t.Fatalf("unexpected quiz_submitted events: %+v", submitted)
	}

	// Duplicate submit after the implicit transition returns the same score.
	receipt, err := service.Submit(ctx, "team-1", saved)
	if err != nil {
		t.Fatalf("submit after auto-submit: %v", err)
	}
	if !receipt.AlreadySubmitted || receipt.Score != 1 {
		t.Fatalf("expected idempotent submit with score 1, got %+v", receipt)
	}
}

func TestSaveAtExpiryAutoSubmitsPersistedAnswers(t *testing.T) {
	ctx := context.Background()
	service, clock, _ := newTestService(t)

	bank := memory.DefaultQuestionBank()
	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	persisted := domain.AnswerSet{1: bank[0].Answer}
	if _, err := service.Save(ctx, "team-1", persisted, 1); err != nil {
		t.Fatalf("save: %v", err)
	}

	clock.Advance(domain.BudgetSeconds * time.Second)
	late := allCorrect()
	if _, err := service.Save(ctx, "team-1", late, 4); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive for save at expiry, got %v", err)
	}

	// The late answers must not have been scored.
	receipt, err := service.Submit(ctx, "team-1", late)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !receipt.AlreadySubmitted || receipt.Score != 1 {
		t.Fatalf("expected stored score 1, got %+v", receipt)
	}
}

// Scenario: a full-mark submission at T0+600s.
func TestSubmitScoresAndRecordsCompletionTime(t *testing.T) {
	ctx := context.Background()
	service, clock, _ := newTestService(t)

	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(600 * time.Second)

	receipt, err := service.Submit(ctx, "team-1", allCorrect())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Score != domain.QuestionCount || receipt.Total != domain.QuestionCount || receipt.AlreadySubmitted {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	board, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].CompletionTime != 600 {
		t.Fatalf("expected completion_time 600, got %+v", board)
	}
}

// Scenario: an explicit submit races the expiry-triggered implicit one. Both
// must resolve to the same result and exactly one Result row may exist.
func TestConcurrentSubmitAndExpiryProgress(t *testing.T) {
	ctx := context.Background()
	service, clock, events := newTestService(t)

	bank := memory.DefaultQuestionBank()
	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := domain.AnswerSet{1: bank[0].Answer, 2: bank[1].Answer}
	if _, err := service.Save(ctx, "team-1", answers, 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	clock.Advance(domain.BudgetSeconds * time.Second)

	var wg sync.WaitGroup
	scores := make([]int, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		receipt, err := service.Submit(ctx, "team-1", answers)
		scores[0], errs[0] = receipt.Score, err
	}()
	go func() {
		defer wg.Done()
		view, err := service.Progress(ctx, "team-1")
		if err == nil && view.Score != nil {
			scores[1] = *view.Score
		}
		errs[1] = err
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if scores[0] != 2 || scores[1] != 2 {
		t.Fatalf("racing requests disagreed on score: %v", scores)
	}

	board, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("expected exactly one result row, got %d", len(board))
	}
	if board[0].CompletionTime != domain.BudgetSeconds {
		t.Fatalf("expected capped completion time, got %d", board[0].CompletionTime)
	}
	if got := len(events.byType(domain.EventQuizSubmitted)); got != 1 {
		t.Fatalf("expected a single quiz_submitted event, got %d", got)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	service, clock, _ := newTestService(t)

	bank := memory.DefaultQuestionBank()
	submit := func(pid string, answers domain.AnswerSet, after time.Duration) {
		t.Helper()
		if _, err := service.Start(ctx, pid); err != nil {
			t.Fatalf("start %s: %v", pid, err)
		}
		clock.Advance(after)
		if _, err := service.Submit(ctx, pid, answers); err != nil {
			t.Fatalf("submit %s: %v", pid, err)
		}
	}

	two := domain.AnswerSet{1: bank[0].Answer, 2: bank[1].Answer}
	one := domain.AnswerSet{1: bank[0].Answer}

	submit("slow-high", allCorrect(), 900*time.Second)
	submit("fast-low", one, 60*time.Second)
	submit("fast-mid", two, 120*time.Second)

	board, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	order := []string{board[0].ParticipantID, board[1].ParticipantID, board[2].ParticipantID}
	want := []string{"slow-high", "fast-mid", "fast-low"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestListSessionsReconcilesLiveTime(t *testing.T) {
	ctx := context.Background()
	service, clock, _ := newTestService(t)

	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Start(ctx, "team-2"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Save(ctx, "team-2", allCorrect(), 4); err != nil {
		t.Fatalf("save: %v", err)
	}

	clock.Advance(100 * time.Second)
	summaries, err := service.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	for _, summary := range summaries {
		if summary.TimeRemaining != domain.BudgetSeconds-100 {
			t.Fatalf("expected live remaining %d, got %d", domain.BudgetSeconds-100, summary.TimeRemaining)
		}
	}
	if summaries[1].AnsweredCount != domain.QuestionCount || !summaries[1].HalfComplete {
		t.Fatalf("unexpected summary for team-2: %+v", summaries[1])
	}

	// After expiry the admin read itself settles the sessions.
	clock.Advance(domain.BudgetSeconds * time.Second)
	summaries, err = service.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list after expiry: %v", err)
	}
	for _, summary := range summaries {
		if summary.Status != domain.StatusSubmitted {
			t.Fatalf("expected submitted after expiry, got %s for %s", summary.Status, summary.ParticipantID)
		}
	}
}

func TestShortlistToggle(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	on, err := service.ToggleShortlist(ctx, "team-1")
	if err != nil || !on {
		t.Fatalf("expected toggle on, got %v %v", on, err)
	}
	off, err := service.ToggleShortlist(ctx, "team-1")
	if err != nil || off {
		t.Fatalf("expected toggle off, got %v %v", off, err)
	}
	entries, err := service.Shortlist(ctx)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty shortlist, got %+v", entries)
	}
}

func TestQuestionsHideAnswerKey(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	views, err := service.Questions(ctx)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(views) != domain.QuestionCount {
		t.Fatalf("expected %d questions, got %d", domain.QuestionCount, len(views))
	}

	full, err := service.QuestionsWithKey(ctx)
	if err != nil {
		t.Fatalf("questions with key: %v", err)
	}
	for i, q := range full {
		if q.ID != views[i].ID || q.Prompt != views[i].Prompt {
			t.Fatalf("view mismatch at %d", i)
		}
		if len(q.Options) != domain.OptionCount {
			t.Fatalf("question %d has %d options", q.ID, len(q.Options))
		}
	}
}

func TestReportBreakdown(t *testing.T) {
	ctx := context.Background()
	service, clock, _ := newTestService(t)

	bank := memory.DefaultQuestionBank()
	if _, err := service.Start(ctx, "team-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(30 * time.Second)
	answers := domain.AnswerSet{1: bank[0].Answer, 3: (bank[2].Answer + 1) % domain.OptionCount}
	if _, err := service.Submit(ctx, "team-1", answers); err != nil {
		t.Fatalf("submit: %v", err)
	}

	report, err := service.Report(ctx, "team-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Result == nil || report.Result.Score != 1 {
		t.Fatalf("unexpected result: %+v", report.Result)
	}
	if len(report.Breakdown) != domain.QuestionCount {
		t.Fatalf("expected %d breakdown rows, got %d", domain.QuestionCount, len(report.Breakdown))
	}
	if !report.Breakdown[0].Correct || report.Breakdown[0].UserAnswer == nil {
		t.Fatalf("expected question 1 correct: %+v", report.Breakdown[0])
	}
	if report.Breakdown[2].Correct {
		t.Fatalf("expected question 3 incorrect: %+v", report.Breakdown[2])
	}
	if report.Breakdown[4].UserAnswer != nil {
		t.Fatalf("expected question 5 unanswered: %+v", report.Breakdown[4])
	}
}
