package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"confluenze-quiz-service/internal/domain"
)

type countingLoader struct {
	calls     int64
	questions []domain.Question
}

func (l *countingLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	atomic.AddInt64(&l.calls, 1)
	if len(l.questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return l.questions, nil
}

func TestQuestionRepositoryCachesWithinTTL(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{questions: DefaultQuestionBank()}
	repo := NewQuestionRepository(loader, time.Minute)

	for i := 0; i < 5; i++ {
		questions, err := repo.Questions(ctx)
		if err != nil {
			t.Fatalf("questions: %v", err)
		}
		if len(questions) != domain.QuestionCount {
			t.Fatalf("expected %d questions, got %d", domain.QuestionCount, len(questions))
		}
	}
	if got := atomic.LoadInt64(&loader.calls); got != 1 {
		t.Fatalf("expected a single loader call, got %d", got)
	}
}

func TestQuestionRepositoryReloadsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{questions: DefaultQuestionBank()}
	repo := NewQuestionRepository(loader, time.Minute)

	now := time.Now()
	repo.clock = func() time.Time { return now }
	if _, err := repo.Questions(ctx); err != nil {
		t.Fatalf("questions: %v", err)
	}

	// Past the TTL plus the maximum jitter the cache must refill.
	now = now.Add(time.Minute + 7*time.Second)
	if _, err := repo.Questions(ctx); err != nil {
		t.Fatalf("questions after expiry: %v", err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 2 {
		t.Fatalf("expected 2 loader calls, got %d", got)
	}
}

func TestQuestionRepositoryCollapsesConcurrentFills(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{questions: DefaultQuestionBank()}
	repo := NewQuestionRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Questions(ctx); err != nil {
				t.Errorf("questions: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&loader.calls); got != 1 {
		t.Fatalf("expected concurrent reads to share one load, got %d", got)
	}
}

func TestQuestionRepositoryPropagatesLoaderError(t *testing.T) {
	repo := NewQuestionRepository(&countingLoader{}, time.Minute)
	if _, err := repo.Questions(context.Background()); !errors.Is(err, domain.ErrQuestionsNotFound) {
		t.Fatalf("expected ErrQuestionsNotFound, got %v", err)
	}
}

func TestDefaultQuestionBankShape(t *testing.T) {
	bank := DefaultQuestionBank()
	if len(bank) != domain.QuestionCount {
		t.Fatalf("expected %d questions, got %d", domain.QuestionCount, len(bank))
	}
	for i, q := range bank {
		if q.ID != i+1 {
			t.Fatalf("question at %d has id %d", i, q.ID)
		}
		if len(q.Options) != domain.OptionCount {
			t.Fatalf("question %d has %d options", q.ID, len(q.Options))
		}
		if q.Answer < 0 || q.Answer >= domain.OptionCount {
			t.Fatalf("question %d has answer index %d", q.ID, q.Answer)
		}
		if q.Code == "" || q.Prompt == "" || q.Language == "" {
			t.Fatalf("question %d is missing content", q.ID)
		}
	}
}
