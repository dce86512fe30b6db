package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/marqueehq/marquee/internal/app/migrate"
	httpx "github.com/marqueehq/marquee/internal/http"
	"github.com/marqueehq/marquee/internal/mail"
	"github.com/marqueehq/marquee/internal/repository/postgres"
	"github.com/marqueehq/marquee/internal/service/account"
	"github.com/marqueehq/marquee/internal/service/auth"
	"github.com/marqueehq/marquee/internal/service/catalog"
	"github.com/marqueehq/marquee/pkg/config"
	"github.com/marqueehq/marquee/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Error("invalid database url", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("redis ping failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	queue := mail.NewQueue(redisClient, cfg.MailQueueKey)
	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		Sender:   cfg.MailSender,
		UseTLS:   cfg.SMTPUseTLS,
	})

	authSvc := auth.New(repo, repo, log)
	accountSvc := account.New(repo, repo, repo, queue, log)
	catalogSvc := catalog.New(repo, log)

	worker := mail.NewWorker(queue, sender, log.With("component", "mail-worker"), cfg.WorkerIdle, cfg.WorkerRetry)
	workerCh := make(chan error, 1)
	go func() {
		workerCh <- worker.Run(ctx)
	}()

	limiter := httpx.NewRedisRateLimiter(redisClient, log)
	router := httpx.NewRouter(log, authSvc, accountSvc, catalogSvc, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		<-workerCh
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case err := <-workerCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("mail worker error", "error", err)
			os.Exit(1)
		}
	}
}
