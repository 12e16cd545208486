package domain

import (
	"math"
	"strconv"
	"time"
)

// Counter field names as stored in player documents. Store implementations
// address individual counters by these names for atomic increments.
const (
	FieldPowerUpsUsed      = "powerUpsUsed"
	FieldGamesPlayed       = "gamesPlayed"
	FieldGamesWon          = "gamesWon"
	FieldQuestionsAnswered = "questionsAnswered"
	FieldQuestionsCorrect  = "questionsCorrect"
	FieldCurrentStreak     = "currentStreak"
	FieldMaxStreak         = "maxStreak"
)

// PlayerRecord holds a registered player's profile and cumulative counters.
// Counters start at zero on registration and only grow through the increment
// operations; the streak pair is the exception and is written as a unit.
type PlayerRecord struct {
	ID                string
	Email             string
	DisplayName       string
	PasswordHash      string
	PowerUpsUsed      int64
	GamesPlayed       int64
	GamesWon          int64
	QuestionsAnswered int64
	QuestionsCorrect  int64
	CurrentStreak     int64
	MaxStreak         int64
	CreatedAt         time.Time
}

// ProjectedAccuracy is the statistics-view accuracy percentage, rounded to two
// decimals. A zero denominator is floored to one so players with no answered
// questions read as 0 instead of faulting.
func (p PlayerRecord) ProjectedAccuracy() float64 {
	answered := p.QuestionsAnswered
	if answered == 0 {
		answered = 1
	}
	pct := float64(p.QuestionsCorrect) / float64(answered) * 100
	return math.Round(pct*100) / 100
}

// RankedAccuracy is the leaderboard accuracy, formatted to two decimals.
// Unlike ProjectedAccuracy it short-circuits to "0" when nothing was answered.
// The two formulas are observably different to clients and stay separate.
func (p PlayerRecord) RankedAccuracy() string {
	if p.QuestionsAnswered == 0 {
		return "0"
	}
	pct := float64(p.QuestionsCorrect) / float64(p.QuestionsAnswered) * 100
	return strconv.FormatFloat(pct, 'f', 2, 64)
}

// PlayerStatistics is the read-time statistics view for a single player.
// CurrentStreak is deliberately not part of the public view.
type PlayerStatistics struct {
	GamesPlayed     int64   `json:"gamesPlayed"`
	GamesWon        int64   `json:"gamesWon"`
	AccuracyPercent float64 `json:"accuracyPercent"`
	PowerUpsUsed    int64   `json:"powerUpsUsed"`
	MaxStreak       int64   `json:"maxStreak"`
}

// RankingEntry is one row of the leaderboard, derived on demand.
type RankingEntry struct {
	PlayerID        string `json:"playerId"`
	DisplayName     string `json:"displayName"`
	GamesPlayed     int64  `json:"gamesPlayed"`
	GamesWon        int64  `json:"gamesWon"`
	AccuracyPercent string `json:"accuracyPercent"`
}

// Session is the result of a successful sign-in.
type Session struct {
	PlayerID    string `json:"playerId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Token       string `json:"token"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question belonging to a difficulty level.
type Question struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"prompt"`
	Difficulty string   `json:"difficulty"`
	Options    []Option `json:"options"`
}
