package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/game"
	"quiz-session-service/internal/infra/memory"
	pglibrary "quiz-session-service/internal/infra/postgres"
	pgmigrations "quiz-session-service/internal/infra/postgres/migrations"
	redislibrary "quiz-session-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// TestPrebuiltSessionFromPostgres runs a full session against a real
// Postgres-backed library: save a quiz, start a prebuilt session from it,
// answer every question, and finish.
func TestPrebuiltSessionFromPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	library := pglibrary.NewLibrary(pool)
	if err := library.SaveQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	session := game.NewSession(memory.NewStaticProvider(nil), memory.NewNarrator(), library, game.DefaultSettings())
	cfg := domain.QuizConfig{Topic: "history", SubTopic: "rome", Count: 2, TimeLimit: 30}
	if err := session.GeneratePrebuilt(ctx, cfg); err != nil {
		t.Fatalf("generate prebuilt: %v", err)
	}
	if err := session.ConfirmStart(); err != nil {
		t.Fatalf("confirm start: %v", err)
	}
	for i := 0; i < 3; i++ {
		session.Tick()
	}
	if got := session.State(); got != game.StatePlaying {
		t.Fatalf("expected PLAYING, got %s", got)
	}

	for {
		question, err := session.CurrentQuestion()
		if err != nil {
			t.Fatalf("current question: %v", err)
		}
		idx := question.CorrectAnswerIndex
		if err := session.SubmitAnswer(domain.AnswerResult{Score: 1, Correct: true, OptionIndex: &idx}); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if err := session.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
		if session.State() == game.StateFinished {
			break
		}
	}

	snap := session.Snapshot()
	if snap.Teams[0].CorrectCount != 2 || snap.Teams[0].Score != 2 {
		t.Fatalf("expected a perfect run, got %+v", snap.Teams[0])
	}

	keywords, err := library.GlobalKeywords(ctx, 10)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(keywords) == 0 {
		t.Fatalf("expected saved keywords in the pool")
	}
}

// TestRedisLibraryRoundTrip exercises the Redis-backed library against a real
// Redis instance: save, random lookup, keyword pool, theme catalog.
func TestRedisLibraryRoundTrip(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	library := redislibrary.NewLibrary(client)

	if err := library.SaveQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	quiz, err := library.RandomQuiz(ctx, "history", "rome")
	if err != nil {
		t.Fatalf("random quiz: %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("document did not round-trip, got %d questions", len(quiz.Questions))
	}

	keywords, err := library.GlobalKeywords(ctx, 10)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", keywords)
	}

	themes, err := library.AvailableThemes(ctx)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	if subTopics, ok := themes["history"]; !ok || len(subTopics) != 1 {
		t.Fatalf("expected history/rome in catalog, got %v", themes)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
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
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Title:    "Roman history",
		Theme:    "history",
		SubTopic: "rome",
		Keywords: []string{"rome", "caesar"},
		Questions: []domain.Question{
			{
				ID:                 "q1",
				Prompt:             "Who was the first Roman emperor?",
				Options:            []string{"Julius Caesar", "Augustus", "Nero", "Trajan"},
				CorrectAnswerIndex: 1,
			},
			{
				ID:                 "q2",
				Prompt:             "In which year was Rome traditionally founded?",
				Options:            []string{"753 BC", "509 BC", "27 BC", "476 AD"},
				CorrectAnswerIndex: 0,
			},
		},
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
