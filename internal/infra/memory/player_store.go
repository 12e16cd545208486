package memory

import (
	"context"
	"fmt"
	"sync"

	"trivia-stats-service/internal/domain"
)

// PlayerStore is an in-memory implementation of app.PlayerStore, useful for
// tests and local development. The mutex serializes increments, which gives
// the same no-lost-updates guarantee the real document stores provide.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]domain.PlayerRecord
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]domain.PlayerRecord)}
}

func (s *PlayerStore) Create(_ context.Context, record domain.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[record.ID] = record
	return nil
}

func (s *PlayerStore) Get(_ context.Context, id string) (domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.players[id]
	if !ok {
		return domain.PlayerRecord{}, domain.ErrPlayerNotFound
	}
	return record, nil
}

func (s *PlayerStore) FindByEmail(_ context.Context, email string) (domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.players {
		if record.Email == email {
			return record, nil
		}
	}
	return domain.PlayerRecord{}, domain.ErrPlayerNotFound
}

func (s *PlayerStore) FindByDisplayName(_ context.Context, name string) (domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.players {
		if record.DisplayName == name {
			return record, nil
		}
	}
	return domain.PlayerRecord{}, domain.ErrPlayerNotFound
}

func (s *PlayerStore) Increment(_ context.Context, id, field string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.players[id]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	switch field {
	case domain.FieldPowerUpsUsed:
		record.PowerUpsUsed += delta
	case domain.FieldGamesPlayed:
		record.GamesPlayed += delta
	case domain.FieldGamesWon:
		record.GamesWon += delta
	case domain.FieldQuestionsAnswered:
		record.QuestionsAnswered += delta
	case domain.FieldQuestionsCorrect:
		record.QuestionsCorrect += delta
	default:
		return fmt.Errorf("unknown counter field %q", field)
	}
	s.players[id] = record
	return nil
}

func (s *PlayerStore) SetStreak(_ context.Context, id string, current, max int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.players[id]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	record.CurrentStreak = current
	record.MaxStreak = max
	s.players[id] = record
	return nil
}

func (s *PlayerStore) List(_ context.Context) ([]domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.PlayerRecord, 0, len(s.players))
	for _, record := range s.players {
		records = append(records, record)
	}
	return records, nil
}
