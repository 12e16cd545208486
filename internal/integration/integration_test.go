package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"trivia-stats-service/internal/app"
	"trivia-stats-service/internal/domain"
	pgloader "trivia-stats-service/internal/infra/postgres"
	pgmigrations "trivia-stats-service/internal/infra/postgres/migrations"
	infraredis "trivia-stats-service/internal/infra/redis"
)

func TestGameplayEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)
	seedQuestions(t, ctx, pgURL, sampleQuestions())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	players := infraredis.NewPlayerStore(redisClient)
	questionRepo := infraredis.NewQuestionCache(redisClient, pgloader.NewQuestionLoader(pool), 5*time.Minute)

	auth := app.NewAuthService(players, "integration-secret", time.Hour)
	stats := app.NewStatsService(players)
	rankings := app.NewRankingService(players)
	questions := app.NewQuestionService(questionRepo)

	alice, err := auth.Register(ctx, "alice@example.com", "sup3rsecret", "Alice")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := auth.Register(ctx, "bob@example.com", "sup3rsecret", "Bob")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	picked, err := questions.RandomQuestions(ctx, "easy", 2)
	if err != nil {
		t.Fatalf("random questions: %v", err)
	}
	if len(picked) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(picked))
	}

	// Alice wins a game answering both questions correctly.
	answered, correct := int64(2), int64(2)
	if err := stats.RecordProgress(ctx, alice.ID, &answered, &correct); err != nil {
		t.Fatalf("progress: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := stats.UpdateStreak(ctx, alice.ID, true); err != nil {
			t.Fatalf("streak: %v", err)
		}
	}
	if err := stats.RecordGameCompleted(ctx, alice.ID); err != nil {
		t.Fatalf("game completed: %v", err)
	}
	if err := stats.RecordGameWon(ctx, alice.ID); err != nil {
		t.Fatalf("game won: %v", err)
	}

	// Bob plays one game and loses.
	answered, correct = 2, 0
	if err := stats.RecordProgress(ctx, bob.ID, &answered, &correct); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := stats.RecordGameCompleted(ctx, bob.ID); err != nil {
		t.Fatalf("game completed: %v", err)
	}

	view, err := stats.Statistics(ctx, alice.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if view.GamesWon != 1 || view.AccuracyPercent != 100 || view.MaxStreak != 2 {
		t.Fatalf("unexpected statistics: %+v", view)
	}

	entries, err := rankings.Ranking(ctx, 10)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(entries) != 2 || entries[0].DisplayName != "Alice" {
		t.Fatalf("expected alice leading, got %+v", entries)
	}
	if entries[0].AccuracyPercent != "100.00" || entries[1].AccuracyPercent != "0.00" {
		t.Fatalf("unexpected accuracies: %+v", entries)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, pgURL string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("init migrator: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, pgURL string, questions []domain.Question) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	for _, question := range questions {
		data, err := json.Marshal(question)
		if err != nil {
			t.Fatalf("marshal question: %v", err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (id, difficulty, data) VALUES (?, ?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
			question.ID, question.Difficulty, string(data)); err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:         "q1",
			Prompt:     "What is 2 + 2?",
			Difficulty: "easy",
			Options: []domain.Option{
				{ID: "o1", Text: "3", Correct: false},
				{ID: "o2", Text: "4", Correct: true},
			},
		},
		{
			ID:         "q2",
			Prompt:     "What color is the sky?",
			Difficulty: "easy",
			Options: []domain.Option{
				{ID: "o1", Text: "Blue", Correct: true},
				{ID: "o2", Text: "Green", Correct: false},
			},
		},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("redis://%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
