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

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
	"assessment-service/internal/infra/postgres"
	pgmigrations "assessment-service/internal/infra/postgres/migrations"
	infraredis "assessment-service/internal/infra/redis"
)

func TestSubmitAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	assessment := memory.SampleAssessments()[memory.SampleAssessmentID]
	seedAssessment(t, ctx, pgURL, assessment)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	assessments := infraredis.NewAssessmentRepository(redisClient, postgres.NewAssessmentStore(pool), 5*time.Minute)
	attempts := infraredis.NewAttemptStore(redisClient, 5*time.Minute)
	results := postgres.NewResultStore(pool)
	service := app.NewAssessmentService(attempts, assessments, results)

	if _, err := service.StartAttempt(ctx, assessment.ID, "attempt-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for questionID, value := range map[string]any{"interest": 3.0, "mood": 2.0} {
		if _, err := service.Answer(ctx, "attempt-1", questionID, value); err != nil {
			t.Fatalf("answer %s: %v", questionID, err)
		}
	}
	if _, err := service.Submit(ctx, "attempt-1"); err == nil {
		t.Fatalf("expected safety question to be required once revealed")
	}
	if _, err := service.Answer(ctx, "attempt-1", "safety", true); err != nil {
		t.Fatalf("answer safety: %v", err)
	}

	result, err := service.Submit(ctx, "attempt-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 5 || result.Band != "elevated" {
		t.Fatalf("expected 5 (elevated), got %v (%s)", result.Score, result.Band)
	}
	if _, ok := result.RiskFlags["self_harm"]; !ok {
		t.Fatalf("expected self_harm flag, got %v", result.RiskFlags)
	}

	stored, err := results.LoadResult(ctx, "attempt-1")
	if err != nil {
		t.Fatalf("load result: %v", err)
	}
	if stored.ID != result.ID || stored.Score != result.Score || len(stored.RiskFlags) != 1 {
		t.Fatalf("stored result differs: %+v", stored)
	}
}

func TestSaveAssessmentPersistsToPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	seedAssessment(t, ctx, pgURL, memory.SampleAssessments()[memory.SampleAssessmentID])

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := postgres.NewAssessmentStore(pool)
	service := app.NewAssessmentService(memory.NewAttemptStore(), memory.NewAssessmentRepository(store, time.Minute), postgres.NewResultStore(pool))

	a := memory.SampleAssessments()[memory.SampleAssessmentID]
	a.ID = "copy"
	a.Title = "Copied mood check"
	if _, err := service.SaveAssessment(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.LoadAssessment(ctx, "copy")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Title != a.Title || len(loaded.Questions) != len(a.Questions) || loaded.Questions[2].ShowIf == nil {
		t.Fatalf("unexpected stored assessment %+v", loaded)
	}
	if _, err := store.LoadAssessment(ctx, "missing"); err != domain.ErrAssessmentNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "assess", "POSTGRES_PASSWORD": "assesspass", "POSTGRES_DB": "assessdb"},
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
	dsn := fmt.Sprintf("postgres://assess:assesspass@%s:%s/assessdb?sslmode=disable", host, port.Port())
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
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedAssessment applies migrations and inserts a directly.
func seedAssessment(t *testing.T, ctx context.Context, dsn string, a domain.Assessment) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal assessment: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO assessments (id, title, data) VALUES (?, ?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, a.ID, a.Title, string(data)); err != nil {
		t.Fatalf("insert assessment: %v", err)
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
