package app

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"trivia-stats-service/internal/domain"
)

// DefaultRankingLimit is applied when a caller requests a non-positive limit.
const DefaultRankingLimit = 10

// RankingService derives the leaderboard from the full player population.
// Each call scans every record; the scan cost is paid per leaderboard request,
// never per gameplay action. The scan is not a snapshot: concurrent mutations
// may be half-visible across players.
type RankingService struct {
	players PlayerStore
}

func NewRankingService(players PlayerStore) *RankingService {
	return &RankingService{players: players}
}

// Ranking returns the top entries ordered by games won, ties broken by
// accuracy. It fails with ErrNoPlayers on an empty population so callers can
// tell "zero players" apart from a truncated-to-nothing page.
func (s *RankingService) Ranking(ctx context.Context, limit int) ([]domain.RankingEntry, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}

	records, err := s.players.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNoPlayers
	}

	entries := make([]domain.RankingEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, domain.RankingEntry{
			PlayerID:        record.ID,
			DisplayName:     resolveDisplayName(record),
			GamesPlayed:     record.GamesPlayed,
			GamesWon:        record.GamesWon,
			AccuracyPercent: record.RankedAccuracy(),
		})
	}

	// Full sort before truncation; order among entries equal on both keys is
	// unspecified.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].GamesWon != entries[j].GamesWon {
			return entries[i].GamesWon > entries[j].GamesWon
		}
		return accuracyValue(entries[i]) > accuracyValue(entries[j])
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// accuracyValue parses the formatted percentage back for comparison, so ties
// are broken on exactly the two-decimal value clients see.
func accuracyValue(entry domain.RankingEntry) float64 {
	v, _ := strconv.ParseFloat(entry.AccuracyPercent, 64)
	return v
}

// resolveDisplayName falls back to the local part of the email when the stored
// display name is empty. A record missing both is outside the contract.
func resolveDisplayName(record domain.PlayerRecord) string {
	if record.DisplayName != "" {
		return record.DisplayName
	}
	if at := strings.Index(record.Email, "@"); at >= 0 {
		return record.Email[:at]
	}
	return record.Email
}

// RankingFeed pushes periodic leaderboard snapshots to subscribers. Refreshes
// only happen while at least one subscriber is connected, one full scan per
// tick regardless of subscriber count.
type RankingFeed struct {
	rankings *RankingService
	limit    int
	refresh  time.Duration

	mu          sync.Mutex
	subscribers map[chan []domain.RankingEntry]struct{}
}

func NewRankingFeed(rankings *RankingService, limit int, refresh time.Duration) *RankingFeed {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if refresh <= 0 {
		refresh = 5 * time.Second
	}
	return &RankingFeed{
		rankings:    rankings,
		limit:       limit,
		refresh:     refresh,
		subscribers: make(map[chan []domain.RankingEntry]struct{}),
	}
}

// Subscribe registers a listener and delivers the current snapshot first.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *RankingFeed) Subscribe(ctx context.Context) (<-chan []domain.RankingEntry, func(), error) {
	initial, err := f.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan []domain.RankingEntry, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	ch <- initial

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

// Run refreshes subscribers until the context is canceled.
func (f *RankingFeed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.mu.Lock()
			idle := len(f.subscribers) == 0
			f.mu.Unlock()
			if idle {
				continue
			}

			snapshot, err := f.snapshot(ctx)
			if err != nil {
				log.Printf("ranking feed refresh failed: %v", err)
				continue
			}
			f.broadcast(snapshot)
		}
	}
}

// snapshot treats an empty population as an empty board; the feed stays open
// while the first players register.
func (f *RankingFeed) snapshot(ctx context.Context) ([]domain.RankingEntry, error) {
	entries, err := f.rankings.Ranking(ctx, f.limit)
	if errors.Is(err, domain.ErrNoPlayers) {
		return []domain.RankingEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *RankingFeed) broadcast(snapshot []domain.RankingEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot so a slow client never blocks the rest.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
