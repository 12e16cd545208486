package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"trivia-stats-service/internal/domain"
)

// PlayerStore keeps one document per player in a "players" collection.
// Counter mutations use $inc, the server-side atomic add-in-place; the streak
// pair is written with a single $set update.
type PlayerStore struct {
	collection *mongo.Collection
}

func NewPlayerStore(db *mongo.Database) *PlayerStore {
	return &PlayerStore{collection: db.Collection("players")}
}

// playerDoc is the stored shape. Omitted counters decode to zero, which keeps
// default-handling at the store boundary.
type playerDoc struct {
	ID                string    `bson:"_id"`
	Email             string    `bson:"email"`
	DisplayName       string    `bson:"displayName"`
	PasswordHash      string    `bson:"passwordHash"`
	PowerUpsUsed      int64     `bson:"powerUpsUsed,omitempty"`
	GamesPlayed       int64     `bson:"gamesPlayed,omitempty"`
	GamesWon          int64     `bson:"gamesWon,omitempty"`
	QuestionsAnswered int64     `bson:"questionsAnswered,omitempty"`
	QuestionsCorrect  int64     `bson:"questionsCorrect,omitempty"`
	CurrentStreak     int64     `bson:"currentStreak,omitempty"`
	MaxStreak         int64     `bson:"maxStreak,omitempty"`
	CreatedAt         time.Time `bson:"createdAt"`
}

func (s *PlayerStore) Create(ctx context.Context, record domain.PlayerRecord) error {
	doc := playerDoc{
		ID:                record.ID,
		Email:             record.Email,
		DisplayName:       record.DisplayName,
		PasswordHash:      record.PasswordHash,
		PowerUpsUsed:      record.PowerUpsUsed,
		GamesPlayed:       record.GamesPlayed,
		GamesWon:          record.GamesWon,
		QuestionsAnswered: record.QuestionsAnswered,
		QuestionsCorrect:  record.QuestionsCorrect,
		CurrentStreak:     record.CurrentStreak,
		MaxStreak:         record.MaxStreak,
		CreatedAt:         record.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *PlayerStore) Get(ctx context.Context, id string) (domain.PlayerRecord, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *PlayerStore) FindByEmail(ctx context.Context, email string) (domain.PlayerRecord, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *PlayerStore) FindByDisplayName(ctx context.Context, name string) (domain.PlayerRecord, error) {
	return s.findOne(ctx, bson.M{"displayName": name})
}

func (s *PlayerStore) findOne(ctx context.Context, filter bson.M) (domain.PlayerRecord, error) {
	var doc playerDoc
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.PlayerRecord{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("find player: %w", err)
	}
	return doc.record(), nil
}

func (s *PlayerStore) Increment(ctx context.Context, id, field string, delta int64) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{field: delta}},
	)
	if err != nil {
		return fmt.Errorf("increment %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (s *PlayerStore) SetStreak(ctx context.Context, id string, current, max int64) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			domain.FieldCurrentStreak: current,
			domain.FieldMaxStreak:     max,
		}},
	)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (s *PlayerStore) List(ctx context.Context) ([]domain.PlayerRecord, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []playerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	records := make([]domain.PlayerRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.record())
	}
	return records, nil
}

func (d playerDoc) record() domain.PlayerRecord {
	return domain.PlayerRecord{
		ID:                d.ID,
		Email:             d.Email,
		DisplayName:       d.DisplayName,
		PasswordHash:      d.PasswordHash,
		PowerUpsUsed:      d.PowerUpsUsed,
		GamesPlayed:       d.GamesPlayed,
		GamesWon:          d.GamesWon,
		QuestionsAnswered: d.QuestionsAnswered,
		QuestionsCorrect:  d.QuestionsCorrect,
		CurrentStreak:     d.CurrentStreak,
		MaxStreak:         d.MaxStreak,
		CreatedAt:         d.CreatedAt,
	}
}
