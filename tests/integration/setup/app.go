package setup

import (
	"context"
	"testing"

	"github.com/lodestonenet/lodestone/internal/config"
	"github.com/lodestonenet/lodestone/internal/constant"
	delivery "github.com/lodestonenet/lodestone/internal/delivery/redis"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TestNode is one fully wired process replica: its own fiber app,
// dispatcher and usecases, sharing the test Postgres and Redis with
// every other node in the test.
type TestNode struct {
	App        *fiber.App
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Dispatcher *delivery.Dispatcher
	Bootstrap  *config.Bootstrap

	transport *delivery.RedisTransport
	stop      context.CancelFunc
}

// SetupTestNode wires a node against the shared containers and
// subscribes it to every channel.
func SetupTestNode(t *testing.T, pgURL, redisURL string) *TestNode {
	t.Log("Setting up test node...")

	ctx := context.Background()

	testConfig := koanf.New(".")
	_ = testConfig.Set("POSTGRES_URL", pgURL)
	_ = testConfig.Set("REDIS_URL", redisURL)
	_ = testConfig.Set("GUILD_MAX_MEMBERS", 50)
	_ = testConfig.Set("GUILD_STORAGE_SLOTS", 54)
	_ = testConfig.Set("GUILD_INTEREST_RATE", "0.01")
	_ = testConfig.Set("GUILD_INTEREST_PERIOD", "24h")

	t.Log("Connecting to test PostgreSQL...")
	dbPool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		t.Fatalf("failed to connect to test db: %v", err)
	}

	t.Log("Connecting to test Redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
		DB:   0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}

	zapLogger := zap.NewExample()

	transport := delivery.NewRedisTransport(redisClient)
	dispatcher := delivery.NewDispatcher(zapLogger, transport)

	fiberApp := fiber.New(fiber.Config{
		AppName:               "lodestone-test",
		DisableStartupMessage: true,
		DisableKeepalive:      true, // Important for tests
	})

	bootstrap := config.Server(&config.ServerConfig{
		Router:     fiberApp,
		DB:         dbPool,
		DBCache:    redisClient,
		Log:        zapLogger,
		Config:     testConfig,
		Dispatcher: dispatcher,
	})

	listenCtx, stopListening := context.WithCancel(context.Background())
	err = dispatcher.Listen(listenCtx,
		constant.ChannelGuild,
		constant.ChannelParty,
		constant.ChannelFriend,
		constant.ChannelStorage,
	)
	if err != nil {
		stopListening()
		t.Fatalf("failed to subscribe test node: %v", err)
	}

	t.Log("Test node setup completed successfully")

	return &TestNode{
		App:        fiberApp,
		DB:         dbPool,
		Redis:      redisClient,
		Dispatcher: dispatcher,
		Bootstrap:  bootstrap,
		transport:  transport,
		stop:       stopListening,
	}
}

func (node *TestNode) Teardown(t *testing.T) {
	node.stop()
	if err := node.transport.Close(); err != nil {
		t.Logf("failed to close transport: %v", err)
	}
	node.DB.Close()
}
