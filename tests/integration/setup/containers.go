package setup

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestInfra struct {
	Postgres *postgres.PostgresContainer
	Redis    *redis.RedisContainer

	PgURL    string
	RedisURL string
}

func StartInfra(ctx context.Context, t *testing.T) (*TestInfra, error) {
	t.Log("Starting test infrastructure...")

	// 1. Start Postgres
	t.Log("Starting PostgreSQL container...")
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("lodestone_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres: %w", err)
	}

	pgURL, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("failed to get postgres connection string: %w", err)
	}
	t.Logf("PostgreSQL started at: %s", pgURL)

	// 2. Start Redis
	t.Log("Starting Redis container...")
	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start redis: %w", err)
	}

	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get redis host: %w", err)
	}

	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get redis port: %w", err)
	}

	redisURL := fmt.Sprintf("%s:%s", redisHost, redisPort.Port())
	t.Logf("Redis started at: %s", redisURL)

	return &TestInfra{
		Postgres: pgContainer,
		Redis:    redisContainer,
		PgURL:    pgURL,
		RedisURL: redisURL,
	}, nil
}

func (infra *TestInfra) Terminate(ctx context.Context, t *testing.T) error {
	t.Log("Terminating test infrastructure...")

	if infra.Postgres != nil {
		if err := infra.Postgres.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate postgres: %w", err)
		}
	}
	if infra.Redis != nil {
		if err := infra.Redis.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate redis: %w", err)
		}
	}

	t.Log("Test infrastructure terminated successfully")
	return nil
}
