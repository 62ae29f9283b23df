// Background worker that freezes daily activity snapshots.
// Consumes the activity-snapshot queue and serves /read-probe and /check-live.
// With -enqueue it publishes one message and exits instead:
//
//	go run ./cmd/worker -enqueue -type ALL -date 2024-03-09
//	go run ./cmd/worker -enqueue -type SINGLE -user 42
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/config"
	"lg/nutri-coach-go-api/internal/jobs"
	"lg/nutri-coach-go-api/internal/logging"
)

func main() {
	enqueue := flag.Bool("enqueue", false, "publish one message and exit")
	msgType := flag.String("type", jobs.ProcessAll, "message type: SINGLE or ALL")
	userID := flag.Int("user", 0, "user id for SINGLE messages")
	date := flag.String("date", "", "day to freeze (YYYY-MM-DD, default yesterday)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg, "worker")
	queue := jobs.NewQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)

	if *enqueue {
		msg, err := buildMessage(*msgType, *userID, *date)
		if err != nil {
			log.WithError(err).Fatal("[main] invalid message")
		}
		if err := publish(queue, msg); err != nil {
			log.WithError(err).Fatal("[main] publish failed")
		}
		log.WithFields(logrus.Fields{"type": msg.Type, "user_id": msg.UserID, "date": msg.Date}).Info("[main] message queued")
		return
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("[main] invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbPool(ctx, cfg.DB.URL)
	if err != nil {
		log.WithError(err).Fatal("[main] database unavailable")
	}
	defer pool.Close()

	freezer := jobs.NewFreezer(jobs.NewPGStore(pool), log, cfg.Worker.Concurrency)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Worker.Port), Handler: probeRouter(queue)}
	go func() {
		log.WithField("port", cfg.Worker.Port).Info("[main] probes listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("[main] probe server failed")
		}
	}()

	if err := queue.Run(ctx, freezer.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("[main] consumer stopped")
	}

	log.Info("[main] worker shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// buildMessage validates the -enqueue flags.
func buildMessage(msgType string, userID int, date string) (jobs.Message, error) {
	switch msgType {
	case jobs.ProcessAll:
		userID = 0
	case jobs.ProcessSingle:
		if userID <= 0 {
			return jobs.Message{}, errors.New("-user is required for SINGLE")
		}
	default:
		return jobs.Message{}, fmt.Errorf("unknown -type %q", msgType)
	}
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return jobs.Message{}, fmt.Errorf("-date must be YYYY-MM-DD: %w", err)
		}
	}
	return jobs.Message{Type: msgType, UserID: userID, Date: date}, nil
}

func publish(queue *jobs.Queue, msg jobs.Message) error {
	if err := queue.Connect(); err != nil {
		return err
	}
	defer queue.Close()
	return queue.Publish(msg)
}

func dbPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
