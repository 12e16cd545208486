package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-stats-service/internal/domain"
	"trivia-stats-service/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader([]domain.Question{
			{ID: "q1", Prompt: "What is 2 + 2?", Difficulty: "easy",
				Options: []domain.Option{{ID: "o1", Text: "4", Correct: true}}},
		}),
	}
	cache := NewQuestionCache(client, loader, time.Minute)

	questions, err := cache.QuestionsByDifficulty(context.Background(), "easy")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q1" {
		t.Fatalf("unexpected bank: %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("questions:easy") {
		t.Fatalf("expected bank key in redis")
	}

	// Second call should hit cache, loader not incremented.
	_, _ = cache.QuestionsByDifficulty(context.Background(), "easy")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, difficulty string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, difficulty)
}
