package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"trivia-stats-service/internal/app"
	"trivia-stats-service/internal/config"
	"trivia-stats-service/internal/domain"
	"trivia-stats-service/internal/infra/memory"
	mongostore "trivia-stats-service/internal/infra/mongo"
	pgloader "trivia-stats-service/internal/infra/postgres"
	redisstore "trivia-stats-service/internal/infra/redis"
	transport "trivia-stats-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var mongoClient *mongo.Client
	if cfg.Mongo.URI != "" {
		mongoClient, err = mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(disconnectCtx)
		}()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Player store preference: Mongo, then Redis, then in-memory.
	var players app.PlayerStore = memory.NewPlayerStore()
	switch {
	case mongoClient != nil:
		players = mongostore.NewPlayerStore(mongoClient.Database(cfg.Mongo.Database))
	case redisClient != nil:
		players = redisstore.NewPlayerStore(redisClient)
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisstore.NewQuestionCache(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionBank(loader, questionTTL)
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = os.Getenv("AUTH_SECRET")
	}
	if secret == "" {
		log.Printf("auth secret not configured; using an insecure development secret")
		secret = "insecure-dev-secret"
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)

	auth := app.NewAuthService(players, secret, tokenTTL)
	stats := app.NewStatsService(players)
	rankings := app.NewRankingService(players)
	questions := app.NewQuestionService(questionRepo)

	refresh := config.TTLDuration(cfg.Ranking.Refresh, 5*time.Second)
	feed := app.NewRankingFeed(rankings, cfg.Ranking.Limit, refresh)

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go feed.Run(feedCtx)

	handler := transport.NewHandler(auth, stats, rankings, questions)
	wsHandler := transport.NewWSHandler(feed)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws/ranking", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia backend on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal bank for running without Postgres.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:         "q1",
			Prompt:     "What is the capital of France?",
			Difficulty: "easy",
			Options: []domain.Option{
				{ID: "o1", Text: "Madrid", Correct: false},
				{ID: "o2", Text: "Paris", Correct: true},
				{ID: "o3", Text: "Rome", Correct: false},
			},
		},
		{
			ID:         "q2",
			Prompt:     "Which planet is closest to the sun?",
			Difficulty: "easy",
			Options: []domain.Option{
				{ID: "o1", Text: "Venus", Correct: false},
				{ID: "o2", Text: "Mercury", Correct: true},
				{ID: "o3", Text: "Mars", Correct: false},
			},
		},
		{
			ID:         "q3",
			Prompt:     "In which year did the French Revolution begin?",
			Difficulty: "hard",
			Options: []domain.Option{
				{ID: "o1", Text: "1789", Correct: true},
				{ID: "o2", Text: "1804", Correct: false},
				{ID: "o3", Text: "1776", Correct: false},
			},
		},
	}
}
