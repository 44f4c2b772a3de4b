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
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"assessment-service/internal/app"
	"assessment-service/internal/config"
	"assessment-service/internal/infra/memory"
	infraMongo "assessment-service/internal/infra/mongo"
	"assessment-service/internal/infra/postgres"
	infraRedis "assessment-service/internal/infra/redis"
	transport "assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
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
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()
	log := zap.L()

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
		defer redisClient.Close()
	}
	attemptTTL := config.TTLDuration(cfg.Attempt.TTL, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
	assessmentTTL := config.TTLDuration(cfg.Assessment.TTL, 10*time.Minute)

	var (
		store   memory.AssessmentStore = memory.NewStaticAssessmentStore(memory.SampleAssessments())
		results app.ResultRepository   = memory.NewResultStore()
		backend                        = "sample"
	)
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return eris.Wrap(err, "connect postgres")
		}
		defer pool.Close()
		store = postgres.NewAssessmentStore(pool)
		results = postgres.NewResultStore(pool)
		backend = "postgres"
	case cfg.Mongo.URI != "":
		client, err := infraMongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		database := cfg.Mongo.Database
		if database == "" {
			database = "assessments"
		}
		store = infraMongo.NewAssessmentStore(client.Database(database))
		results = infraMongo.NewResultStore(client.Database(database))
		backend = "mongo"
	}

	var assessments app.AssessmentRepository
	var attempts app.AttemptRepository
	if redisClient != nil {
		assessments = infraRedis.NewAssessmentRepository(redisClient, store, assessmentTTL)
		attempts = infraRedis.NewAttemptStore(redisClient, attemptTTL)
	} else {
		assessments = memory.NewAssessmentRepository(store, assessmentTTL)
		attempts = memory.NewAttemptStore()
	}

	service := app.NewAssessmentService(attempts, assessments, results)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting assessment service",
			zap.String("port", finalPort),
			zap.String("backend", backend),
			zap.Bool("redis", redisClient != nil),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
