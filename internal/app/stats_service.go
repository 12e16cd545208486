package app

import (
	"context"

	"trivia-stats-service/internal/domain"
)

// PlayerStore abstracts how player records are stored (in-memory, Redis, Mongo).
// Increment must be an atomic add-in-place against the backing store; SetStreak
// must persist both streak fields as a single update with no intermediate state
// observable.
type PlayerStore interface {
	Create(ctx context.Context, record domain.PlayerRecord) error
	Get(ctx context.Context, id string) (domain.PlayerRecord, error)
	FindByEmail(ctx context.Context, email string) (domain.PlayerRecord, error)
	FindByDisplayName(ctx context.Context, name string) (domain.PlayerRecord, error)
	Increment(ctx context.Context, id, field string, delta int64) error
	SetStreak(ctx context.Context, id string, current, max int64) error
	List(ctx context.Context) ([]domain.PlayerRecord, error)
}

// StatsService folds gameplay events into per-player counters and projects the
// statistics view. Counter mutations go through the store's atomic increments;
// concurrent games for the same player never lose updates.
type StatsService struct {
	players PlayerStore
}

func NewStatsService(players PlayerStore) *StatsService {
	return &StatsService{players: players}
}

// UpdateStreak advances or resets the answer streak and raises the max if the
// new run exceeds it. Both fields are written back unconditionally in one
// store update, even when neither changed.
//
// The read-compare-write on maxStreak is not atomic against concurrent streak
// updates for the same player; a single player rarely issues concurrent
// requests, so the weaker guarantee is accepted.
func (s *StatsService) UpdateStreak(ctx context.Context, playerID string, wasCorrect bool) error {
	if playerID == "" {
		return domain.ErrMissingPlayerID
	}
	record, err := s.players.Get(ctx, playerID)
	if err != nil {
		return err
	}

	current := record.CurrentStreak
	if wasCorrect {
		current++
	} else {
		current = 0
	}
	max := record.MaxStreak
	if current > max {
		max = current
	}
	return s.players.SetStreak(ctx, playerID, current, max)
}

// RecordProgress adds the present deltas to the answered/correct counters.
// Absent deltas leave their counter untouched; with both absent the call is a
// no-op that still succeeds.
func (s *StatsService) RecordProgress(ctx context.Context, playerID string, answeredDelta, correctDelta *int64) error {
	if playerID == "" {
		return domain.ErrMissingPlayerID
	}
	if _, err := s.players.Get(ctx, playerID); err != nil {
		return err
	}
	if answeredDelta != nil {
		if err := s.players.Increment(ctx, playerID, domain.FieldQuestionsAnswered, *answeredDelta); err != nil {
			return err
		}
	}
	if correctDelta != nil {
		if err := s.players.Increment(ctx, playerID, domain.FieldQuestionsCorrect, *correctDelta); err != nil {
			return err
		}
	}
	return nil
}

// RecordGameCompleted bumps gamesPlayed by one.
func (s *StatsService) RecordGameCompleted(ctx context.Context, playerID string) error {
	return s.incrementByOne(ctx, playerID, domain.FieldGamesPlayed)
}

// RecordGameWon bumps gamesWon by one. It is independent of
// RecordGameCompleted; keeping gamesWon <= gamesPlayed is the caller's job.
func (s *StatsService) RecordGameWon(ctx context.Context, playerID string) error {
	return s.incrementByOne(ctx, playerID, domain.FieldGamesWon)
}

// RecordPowerUpUsed bumps powerUpsUsed by one.
func (s *StatsService) RecordPowerUpUsed(ctx context.Context, playerID string) error {
	return s.incrementByOne(ctx, playerID, domain.FieldPowerUpsUsed)
}

func (s *StatsService) incrementByOne(ctx context.Context, playerID, field string) error {
	if playerID == "" {
		return domain.ErrMissingPlayerID
	}
	if _, err := s.players.Get(ctx, playerID); err != nil {
		return err
	}
	return s.players.Increment(ctx, playerID, field, 1)
}

// Statistics reads the player's counters once and derives the public view.
func (s *StatsService) Statistics(ctx context.Context, playerID string) (domain.PlayerStatistics, error) {
	if playerID == "" {
		return domain.PlayerStatistics{}, domain.ErrMissingPlayerID
	}
	record, err := s.players.Get(ctx, playerID)
	if err != nil {
		return domain.PlayerStatistics{}, err
	}
	return domain.PlayerStatistics{
		GamesPlayed:     record.GamesPlayed,
		GamesWon:        record.GamesWon,
		AccuracyPercent: record.ProjectedAccuracy(),
		PowerUpsUsed:    record.PowerUpsUsed,
		MaxStreak:       record.MaxStreak,
	}, nil
}
