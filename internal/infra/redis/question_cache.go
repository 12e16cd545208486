package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-stats-service/internal/domain"
	"trivia-stats-service/internal/infra/memory"
)

// QuestionCache keeps each difficulty's bank in Redis as a JSON blob
// (SET questions:{difficulty}) and falls back to a loader on cache miss.
type QuestionCache struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) QuestionsByDifficulty(ctx context.Context, difficulty string) ([]domain.Question, error) {
	key := c.bankKey(difficulty)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return decodeBank(raw)
	}

	result, err, _ := c.sf.Do(difficulty, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return decodeBank(raw)
		}

		questions, err := c.loader.LoadQuestions(ctx, difficulty)
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("encode question bank: %w", err)
		}
		_ = c.client.Set(ctx, key, encoded, c.ttlWithJitter()).Err()

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) bankKey(difficulty string) string {
	return "questions:" + difficulty
}

func decodeBank(raw []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return questions, nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
