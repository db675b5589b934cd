package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/lodestonenet/lodestone/internal/config"
	"github.com/lodestonenet/lodestone/internal/constant"
	delivery "github.com/lodestonenet/lodestone/internal/delivery/redis"
	recovery "github.com/lodestonenet/lodestone/internal/exception"
	"github.com/lodestonenet/lodestone/internal/middleware"
	"github.com/lodestonenet/lodestone/internal/observability"
	zapLog "go.uber.org/zap"
)

func main() {
	time.Local = time.UTC

	fiber := config.NewFiber()
	zap := config.NewZap()
	koanf := config.NewKoanf(zap)
	rds := config.NewRedisClient(koanf, zap)
	postgresql := config.NewPostgresqlPool(koanf, zap)

	// Traces are optional: without an OTLP endpoint the process runs
	// with logging only.
	observabilityConfig := config.LoadObservabilityConfig(koanf, zap)
	var shutdownTracing func(context.Context) error
	if observabilityConfig.OtelEndpoint != "" {
		var err error
		shutdownTracing, err = observability.Init(context.Background(), observabilityConfig, zap)
		if err != nil {
			zap.Fatal("failed to initialize tracing", zapLog.Error(err))
		}
	}

	fiber.Use(recovery.Recovery(zap))
	fiber.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	fiber.Use(otelfiber.Middleware())
	fiber.Use(middleware.TraceLoggerMiddleware(zap))

	transport := delivery.NewRedisTransport(rds)
	dispatcher := delivery.Initialize(zap, transport)

	bootstrap := config.Server(&config.ServerConfig{
		Router:     fiber,
		DB:         postgresql,
		DBCache:    rds,
		Log:        zap,
		Config:     koanf,
		Dispatcher: dispatcher,
	})

	listenCtx, stopListening := context.WithCancel(context.Background())
	defer stopListening()

	err := dispatcher.Listen(listenCtx,
		constant.ChannelGuild,
		constant.ChannelParty,
		constant.ChannelFriend,
		constant.ChannelStorage,
	)
	if err != nil {
		zap.Fatal("failed to subscribe to channels", zapLog.Error(err))
	}

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
	if err := bootstrap.GuildUsecase.WarmUp(warmCtx); err != nil {
		zap.Fatal("failed to warm up guild registry", zapLog.Error(err))
	}
	cancelWarm()

	bootstrap.InterestJob.Start()

	GO_SERVER_PORT := koanf.String("GO_SERVER")

	zap.Info("Server is running on: " + GO_SERVER_PORT)

	go func() {
		if err := fiber.Listen(GO_SERVER_PORT); err != nil {
			zap.Fatal("error starting server", zapLog.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	zap.Info("got one of stop signals")

	bootstrap.InterestJob.Stop()
	stopListening()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiber.ShutdownWithContext(shutdownCtx); err != nil {
		zap.Warn("timeout, forced kill!", zapLog.Error(err))
		_ = zap.Sync()
		os.Exit(1)
	}

	if err := transport.Close(); err != nil {
		zap.Warn("failed to close transport", zapLog.Error(err))
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			zap.Warn("failed to flush traces", zapLog.Error(err))
		}
	}

	zap.Info("server has shut down gracefully")
	_ = zap.Sync()
}
