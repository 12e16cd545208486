package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-stats-service/internal/domain"
)

// PlayerStore keeps each player record as a Redis hash:
//
//	HSET player:{id} email ... displayName ... gamesPlayed ...
//
// plus a "players" set of ids for the full-population scan and string keys
// indexing email and display name to id. HINCRBY provides the atomic
// add-in-place the counter contract requires; the streak pair is written with
// a single HSET so no intermediate state is observable.
type PlayerStore struct {
	client *redis.Client
}

func NewPlayerStore(client *redis.Client) *PlayerStore {
	return &PlayerStore{client: client}
}

func (s *PlayerStore) Create(ctx context.Context, record domain.PlayerRecord) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.playerKey(record.ID),
		"email", record.Email,
		"displayName", record.DisplayName,
		"passwordHash", record.PasswordHash,
		"createdAt", record.CreatedAt.UTC().Format(time.RFC3339),
		domain.FieldPowerUpsUsed, record.PowerUpsUsed,
		domain.FieldGamesPlayed, record.GamesPlayed,
		domain.FieldGamesWon, record.GamesWon,
		domain.FieldQuestionsAnswered, record.QuestionsAnswered,
		domain.FieldQuestionsCorrect, record.QuestionsCorrect,
		domain.FieldCurrentStreak, record.CurrentStreak,
		domain.FieldMaxStreak, record.MaxStreak,
	)
	pipe.SAdd(ctx, "players", record.ID)
	pipe.Set(ctx, s.emailKey(record.Email), record.ID, 0)
	pipe.Set(ctx, s.nameKey(record.DisplayName), record.ID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (s *PlayerStore) Get(ctx context.Context, id string) (domain.PlayerRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.playerKey(id)).Result()
	if err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	if len(fields) == 0 {
		return domain.PlayerRecord{}, domain.ErrPlayerNotFound
	}
	return recordFromHash(id, fields), nil
}

func (s *PlayerStore) FindByEmail(ctx context.Context, email string) (domain.PlayerRecord, error) {
	return s.findByIndex(ctx, s.emailKey(email))
}

func (s *PlayerStore) FindByDisplayName(ctx context.Context, name string) (domain.PlayerRecord, error) {
	return s.findByIndex(ctx, s.nameKey(name))
}

func (s *PlayerStore) findByIndex(ctx context.Context, indexKey string) (domain.PlayerRecord, error) {
	id, err := s.client.Get(ctx, indexKey).Result()
	if err == redis.Nil {
		return domain.PlayerRecord{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("resolve player index: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *PlayerStore) Increment(ctx context.Context, id, field string, delta int64) error {
	if err := s.client.HIncrBy(ctx, s.playerKey(id), field, delta).Err(); err != nil {
		return fmt.Errorf("increment %s: %w", field, err)
	}
	return nil
}

func (s *PlayerStore) SetStreak(ctx context.Context, id string, current, max int64) error {
	err := s.client.HSet(ctx, s.playerKey(id),
		domain.FieldCurrentStreak, current,
		domain.FieldMaxStreak, max,
	).Err()
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

func (s *PlayerStore) List(ctx context.Context) ([]domain.PlayerRecord, error) {
	ids, err := s.client.SMembers(ctx, "players").Result()
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.playerKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	records := make([]domain.PlayerRecord, 0, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		records = append(records, recordFromHash(ids[i], fields))
	}
	return records, nil
}

func (s *PlayerStore) playerKey(id string) string {
	return "player:" + id
}

func (s *PlayerStore) emailKey(email string) string {
	return "player:email:" + email
}

func (s *PlayerStore) nameKey(name string) string {
	return "player:name:" + name
}

// recordFromHash normalizes a loosely-typed hash into a PlayerRecord; missing
// or malformed counters read as zero so the rest of the core never re-applies
// defaults.
func recordFromHash(id string, fields map[string]string) domain.PlayerRecord {
	createdAt, _ := time.Parse(time.RFC3339, fields["createdAt"])
	return domain.PlayerRecord{
		ID:                id,
		Email:             fields["email"],
		DisplayName:       fields["displayName"],
		PasswordHash:      fields["passwordHash"],
		PowerUpsUsed:      parseCounter(fields[domain.FieldPowerUpsUsed]),
		GamesPlayed:       parseCounter(fields[domain.FieldGamesPlayed]),
		GamesWon:          parseCounter(fields[domain.FieldGamesWon]),
		QuestionsAnswered: parseCounter(fields[domain.FieldQuestionsAnswered]),
		QuestionsCorrect:  parseCounter(fields[domain.FieldQuestionsCorrect]),
		CurrentStreak:     parseCounter(fields[domain.FieldCurrentStreak]),
		MaxStreak:         parseCounter(fields[domain.FieldMaxStreak]),
		CreatedAt:         createdAt,
	}
}

func parseCounter(raw string) int64 {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
