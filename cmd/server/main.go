package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/trainplan/internal/api"
	"alcyxob/trainplan/internal/bulk"
	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/config"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/metrics"
	"alcyxob/trainplan/internal/planner"
	"alcyxob/trainplan/internal/repository/docrepo"
	"alcyxob/trainplan/internal/repository/mongo"
	"alcyxob/trainplan/internal/service"
	"alcyxob/trainplan/internal/storage"
	"alcyxob/trainplan/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Params())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
	log.Info("Server exiting")
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var traceOut io.Writer
	if cfg.Tracing.Stdout {
		traceOut = os.Stdout
	}
	shutdownTracing, err := tracing.Setup(traceOut)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Failed to flush traces", "error", err)
		}
	}()

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("could not connect to MongoDB: %w", err)
	}
	defer func() {
		log.Info("Disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("Failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	cols := cfg.Database.Collections

	indexCtx, cancelIndexes := context.WithTimeout(ctx, time.Minute)
	err = mongo.EnsureIndexes(indexCtx, appDB, cols)
	cancelIndexes()
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	log.Info("Database ready", "database", cfg.Database.Name)

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewBuildInfoCollector(), collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("trainplan", "server", reg)

	// --- Storage ---
	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3, log)
	if err != nil {
		return fmt.Errorf("initialize S3 storage: %w", err)
	}

	// --- Repositories and services ---
	st := mongo.NewDocumentStore(appDB)
	clk := clock.RealClock{}
	writer := bulk.NewWriter(st, cfg.Writer.Config, m, log)
	generator := planner.NewGenerator(writer, cols, clk, m, log)

	programRepo := docrepo.NewProgramRepository(st, cols.Programs)
	dayRepo := docrepo.NewProgramDayRepository(st, cols.ProgramDays)
	exerciseRepo := docrepo.NewProgramExerciseRepository(st, cols.ProgramExercises)
	workoutRepo := docrepo.NewWorkoutRepository(st, cols.Workouts)
	setLogRepo := docrepo.NewSetLogRepository(st, cols.SetLogs)

	planService := service.NewPlanService(programRepo, dayRepo, exerciseRepo, generator, fileStorage, cfg.S3.URLExpiry, clk, log)
	workoutService := service.NewWorkoutService(programRepo, dayRepo, exerciseRepo, workoutRepo, setLogRepo,
		writer, cols.SetLogs, cfg.Writer.Concurrency, clk, m, log)

	// --- HTTP ---
	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, reg, planService, workoutService, cfg.Writer.Concurrency, log)

	// No write timeout: streamed generation runs for as long as the writes take.
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server", "timeout", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}
