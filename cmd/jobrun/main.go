// Command jobrun runs one report job once and exits, for external timers.
//
//	jobrun -job monthly-recap
//	jobrun -job revisit-reminders -user 42
//
// With -user only that user is processed, as the HTTP test endpoints do.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/config"
	"github.com/AnshRaj112/tastetracker-backend/internal/database"
	"github.com/AnshRaj112/tastetracker-backend/internal/jobs"
	"github.com/AnshRaj112/tastetracker-backend/internal/logger"
	"github.com/AnshRaj112/tastetracker-backend/internal/notify"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/entries"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/users"
)

func main() {
	job := flag.String("job", "", "job to run: "+jobs.JobMonthlyRecap+" or "+jobs.JobRevisitReminders)
	userID := flag.String("user", "", "run for a single user only")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog := logger.New(cfg.Environment)
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	defer cancel()

	out, err := run(ctx, cfg, zlog, *job, *userID)
	if err != nil {
		zlog.Error("job failed", zap.String("job", *job), zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, job, userID string) (interface{}, error) {
	if job != jobs.JobMonthlyRecap && job != jobs.JobRevisitReminders {
		return nil, fmt.Errorf("unknown job %q", job)
	}

	mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return nil, err
	}
	defer func() { _ = database.DisconnectMongo(mongoClient) }()

	pg, err := database.ConnectPostgres(ctx, cfg.PostgresURI, log)
	if err != nil {
		return nil, err
	}
	defer pg.Close()

	fcm, err := notify.NewFCM(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID, log)
	if err != nil {
		return nil, err
	}

	runner := jobs.NewRunner(entries.NewMongoRepository(mongoDB), users.NewPostgresRepository(pg), fcm, log,
		jobs.WithLocation(cfg.JobTimezone))

	switch {
	case job == jobs.JobMonthlyRecap && userID != "":
		return runner.TestMonthlyRecap(ctx, userID)
	case job == jobs.JobMonthlyRecap:
		return runner.RunMonthlyRecap(ctx)
	case userID != "":
		return runner.TestRevisitReminders(ctx, userID)
	default:
		return runner.RunRevisitReminders(ctx)
	}
}
