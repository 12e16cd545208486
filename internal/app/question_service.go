package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-stats-service/internal/domain"
)

// QuestionRepository loads the question bank for a difficulty (from cache or
// backing store).
type QuestionRepository interface {
	QuestionsByDifficulty(ctx context.Context, difficulty string) ([]domain.Question, error)
}

// QuestionService serves randomized question sets by difficulty.
type QuestionService struct {
	questions QuestionRepository

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionService(questions QuestionRepository) *QuestionService {
	return &QuestionService{
		questions: questions,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RandomQuestions picks count distinct questions of the given difficulty,
// uniformly at random. Fails with ErrNotEnoughQuestions when the bank is
// smaller than the request.
func (s *QuestionService) RandomQuestions(ctx context.Context, difficulty string, count int) ([]domain.Question, error) {
	if difficulty == "" || count <= 0 {
		return nil, domain.ErrMissingField
	}

	bank, err := s.questions.QuestionsByDifficulty(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	if len(bank) < count {
		return nil, domain.ErrNotEnoughQuestions
	}

	s.mu.Lock()
	order := s.rnd.Perm(len(bank))
	s.mu.Unlock()

	picked := make([]domain.Question, 0, count)
	for _, idx := range order[:count] {
		picked = append(picked, bank[idx])
	}
	return picked, nil
}
