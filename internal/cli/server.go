package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sciquiz-service/internal/config"
	"sciquiz-service/internal/domain"
	"sciquiz-service/internal/game"
	"sciquiz-service/internal/infra/memory"
	pgstore "sciquiz-service/internal/infra/postgres"
	redisstore "sciquiz-service/internal/infra/redis"
	"sciquiz-service/internal/questions"
	transport "sciquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz match server",
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

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	questionsTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	generator := memory.NewBankSource(sampleBank())
	var source questions.Source
	if redisClient != nil {
		source = redisstore.NewCachedSource(redisClient, generator, questionsTTL)
	} else {
		source = memory.NewCachedSource(generator, questionsTTL)
	}

	var sets questions.SetLoader
	if pool != nil {
		sets = pgstore.NewSetLoader(pool)
	}

	var boards game.LeaderboardStore
	if redisClient != nil {
		boards = redisstore.NewLeaderboard(redisClient, redisTTL)
	} else {
		boards = memory.NewLeaderboard()
	}

	orch := game.NewOrchestrator(source, boards, game.Options{
		Logger:         logger,
		RevealDelay:    config.TTLDuration(cfg.Game.RevealDelay, 0),
		DefaultSeconds: cfg.Game.SecondsPerQuestion,
	})
	wsHandler := transport.NewWSHandler(orch, sets, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz match server", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleBank provides a minimal question bank; swap the generator with a
// content-service backed source in production.
func sampleBank() map[string][]domain.Question {
	return map[string][]domain.Question{
		"arithmetic": {
			{
				Prompt:       "What is 2 + 2?",
				Options:      []string{"3", "4", "5", "6"},
				CorrectIndex: 1,
			},
			{
				Prompt:       "What is 7 * 8?",
				Options:      []string{"54", "56", "63", "64"},
				CorrectIndex: 1,
			},
		},
		"astronomy": {
			{
				Prompt:       "Which planet is closest to the sun?",
				Options:      []string{"Venus", "Earth", "Mercury", "Mars"},
				CorrectIndex: 2,
			},
		},
	}
}
