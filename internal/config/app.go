package config

import (
	http "github.com/lodestonenet/lodestone/internal/delivery/http"
	"github.com/lodestonenet/lodestone/internal/delivery/http/route"
	delivery "github.com/lodestonenet/lodestone/internal/delivery/redis"
	"github.com/lodestonenet/lodestone/internal/jobs"
	"github.com/lodestonenet/lodestone/internal/repository"
	"github.com/lodestonenet/lodestone/internal/usecase"
	"github.com/shopspring/decimal"

	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Router     *fiber.App
	DB         *pgxpool.Pool
	DBCache    *redis.Client
	Log        *zap.Logger
	Config     *koanf.Koanf
	Dispatcher *delivery.Dispatcher
}

// Bootstrap holds the wired components main still needs after setup:
// usecases for the warm-up pass and the interest job for its
// start/stop lifecycle.
type Bootstrap struct {
	GuildUsecase  *usecase.GuildUsecase
	PartyUsecase  *usecase.PartyUsecase
	FriendUsecase *usecase.FriendUsecase
	InterestJob   *jobs.InterestJob
}

func Server(config *ServerConfig) *Bootstrap {
	guildRepository := repository.NewGuildRepository(config.Log, config.DB, config.DBCache)
	guildUsecase := usecase.NewGuildUsecase(guildRepository, config.Dispatcher, config.Log, config.Config)
	guildUsecase.RegisterHandlers()

	partyRepository := repository.NewPartyRepository(config.Log, config.DBCache)
	partyUsecase := usecase.NewPartyUsecase(partyRepository, config.Dispatcher, config.Log, config.Config)
	partyUsecase.RegisterHandlers()

	friendRepository := repository.NewFriendRepository(config.Log, config.DB)
	friendUsecase := usecase.NewFriendUsecase(friendRepository, config.Dispatcher, config.Log, config.Config)
	friendUsecase.RegisterHandlers()

	interestJob := jobs.NewInterestJob(
		guildRepository,
		guildRepository,
		loadInterestRate(config.Config, config.Log),
		loadInterestPeriod(config.Config, config.Log),
		config.Log,
	)

	opsController := http.NewOpsController(guildUsecase, partyUsecase, friendUsecase, config.Dispatcher, interestJob, config.DB, config.DBCache, config.Log)

	routeConfig := route.RouteConfig{
		App:           config.Router,
		OpsController: opsController,
		Log:           config.Log,
		Config:        config.Config,
	}
	routeConfig.SetupRoute()

	return &Bootstrap{
		GuildUsecase:  guildUsecase,
		PartyUsecase:  partyUsecase,
		FriendUsecase: friendUsecase,
		InterestJob:   interestJob,
	}
}

func loadInterestRate(config *koanf.Koanf, log *zap.Logger) decimal.Decimal {
	raw := config.String("GUILD_INTEREST_RATE")
	if raw == "" {
		raw = "0.01"
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		log.Fatal("invalid GUILD_INTEREST_RATE", zap.String("value", raw), zap.Error(err))
	}
	return rate
}

func loadInterestPeriod(config *koanf.Koanf, log *zap.Logger) time.Duration {
	raw := config.String("GUILD_INTEREST_PERIOD")
	if raw == "" {
		return jobs.DefaultInterestPeriod
	}
	period, err := time.ParseDuration(raw)
	if err != nil || period <= 0 {
		log.Fatal("invalid GUILD_INTEREST_PERIOD", zap.String("value", raw), zap.Error(err))
	}
	return period
}
