package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/config"
	"github.com/AnshRaj112/tastetracker-backend/internal/database"
	"github.com/AnshRaj112/tastetracker-backend/internal/handlers"
	"github.com/AnshRaj112/tastetracker-backend/internal/jobs"
	"github.com/AnshRaj112/tastetracker-backend/internal/journal"
	"github.com/AnshRaj112/tastetracker-backend/internal/logger"
	"github.com/AnshRaj112/tastetracker-backend/internal/middleware"
	"github.com/AnshRaj112/tastetracker-backend/internal/notify"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/entries"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/users"
	"github.com/AnshRaj112/tastetracker-backend/internal/routes"
	"github.com/AnshRaj112/tastetracker-backend/internal/scheduler"
	"github.com/AnshRaj112/tastetracker-backend/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
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

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return err
	}
	defer func() { _ = database.DisconnectMongo(mongoClient) }()

	pg, err := database.ConnectPostgres(ctx, cfg.PostgresURI, log)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := database.InitPostgresTables(ctx, pg); err != nil {
		return err
	}

	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	entryRepo := entries.NewMongoRepository(mongoDB)
	if err := entryRepo.EnsureIndexes(ctx); err != nil {
		log.Warn("failed to ensure entry indexes", zap.Error(err))
	}
	userRepo := users.NewPostgresRepository(pg)

	// services
	sessions := services.NewSessionStore(rdb)
	hub := services.NewEntryHub(rdb, log)
	go hub.Run(ctx)

	var mailer services.Mailer = services.NewLogMailer(log)
	if cfg.SMTP.Enabled() {
		mailer = services.NewSMTPMailer(cfg.SMTP)
	}
	auth := services.NewAuthService(userRepo, sessions, mailer, cfg.ResetURLBase, log)
	journalSvc := journal.NewService(entryRepo, hub, log)

	var places services.PlacesProvider = services.DisabledPlaces{}
	if cfg.GooglePlacesAPIKey != "" {
		gp, err := services.NewGooglePlaces(cfg.GooglePlacesAPIKey)
		if err != nil {
			return err
		}
		places = services.NewCachedPlaces(gp, services.NewCache(rdb), log)
	} else {
		log.Warn("GOOGLE_PLACES_API_KEY not set, place search disabled")
	}

	var push notify.Dispatcher = notify.Disabled{}
	if cfg.FirebaseProjectID != "" || cfg.FirebaseCredentialsFile != "" {
		fcm, err := notify.NewFCM(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID, log)
		if err != nil {
			return err
		}
		push = fcm
	} else {
		log.Warn("Firebase not configured, push notifications disabled")
	}

	runner := jobs.NewRunner(entryRepo, userRepo, push, log, jobs.WithLocation(cfg.JobTimezone))
	sched := scheduler.New(cfg.JobTimezone, cfg.JobTimeout, log)
	if err := registerJobs(sched, runner, cfg, log); err != nil {
		return err
	}
	if cfg.SchedulerEnabled {
		sched.Start(ctx)
	} else {
		log.Info("scheduler disabled, jobs run only on demand")
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			log.Warn("scheduler did not stop cleanly", zap.Error(err))
		}
	}()

	// router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(ctx) {
			r.Use(mw)
		}
		log.Info("production security enabled")
	} else {
		r.Use(middleware.NewRedisRateLimit(rdb, log).Handler)
	}

	routes.SetupRoutes(r, routes.Handlers{
		Auth:    handlers.NewAuthHandler(auth, log),
		Users:   handlers.NewUserHandler(userRepo, log),
		Entries: handlers.NewEntryHandler(journalSvc, log),
		Places:  handlers.NewPlacesHandler(places, log),
		Jobs:    handlers.NewJobsHandler(runner, sched, log),
		Streams: handlers.NewStreamHandler(journalSvc, hub, places, cfg.PlacesDebounce, log),
	}, routes.Guards{
		Session: middleware.RequireSession(sessions, services.ErrSessionNotFound, log),
		Places:  middleware.NewPlacesRateLimit(ctx).Handler,
		JobsKey: cfg.JobsAPIKey,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("TasteTracker backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func registerJobs(sched *scheduler.Scheduler, runner *jobs.Runner, cfg *config.Config, log *zap.Logger) error {
	batch := func(name string, fn func(context.Context) (jobs.RunResult, error)) func(context.Context) error {
		return func(ctx context.Context) error {
			res, err := fn(ctx)
			if err != nil {
				return err
			}
			log.Info("job finished",
				zap.String("job", name),
				zap.Int("users", res.Users),
				zap.Int("sent", res.Sent),
				zap.Int("failed", res.Failed),
			)
			return nil
		}
	}

	err := sched.Register(scheduler.Job{
		Name:        jobs.JobMonthlyRecap,
		Description: "Monthly recap push for every user with a token",
		Spec:        cfg.RecapSchedule,
		Fn:          batch(jobs.JobMonthlyRecap, runner.RunMonthlyRecap),
	})
	if err != nil {
		return err
	}
	return sched.Register(scheduler.Job{
		Name:        jobs.JobRevisitReminders,
		Description: "Weekly reminder about five-star places not revisited",
		Spec:        cfg.RevisitSchedule,
		Fn:          batch(jobs.JobRevisitReminders, runner.RunRevisitReminders),
	})
}
