package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lodestonenet/lodestone/internal/constant"
	delivery "github.com/lodestonenet/lodestone/internal/delivery/redis"
	"github.com/lodestonenet/lodestone/internal/jobs"
	"github.com/lodestonenet/lodestone/internal/middleware"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/lodestonenet/lodestone/internal/usecase"
	"github.com/lodestonenet/lodestone/internal/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpsController is the internal, read-only HTTP surface: health for
// orchestration, stats and entity lookups for operators. Player-facing
// commands never come through here.
type OpsController struct {
	GuildUsecase  *usecase.GuildUsecase
	PartyUsecase  *usecase.PartyUsecase
	FriendUsecase *usecase.FriendUsecase
	Dispatcher    *delivery.Dispatcher
	InterestJob   *jobs.InterestJob
	DB            *pgxpool.Pool
	DBCache       *redis.Client
	Log           *zap.Logger
}

func NewOpsController(guildUsecase *usecase.GuildUsecase, partyUsecase *usecase.PartyUsecase, friendUsecase *usecase.FriendUsecase, dispatcher *delivery.Dispatcher, interestJob *jobs.InterestJob, db *pgxpool.Pool, dbCache *redis.Client, zap *zap.Logger) *OpsController {
	return &OpsController{
		GuildUsecase:  guildUsecase,
		PartyUsecase:  partyUsecase,
		FriendUsecase: friendUsecase,
		Dispatcher:    dispatcher,
		InterestJob:   interestJob,
		DB:            db,
		DBCache:       dbCache,
		Log:           zap,
	}
}

func (controller *OpsController) Health(ctx *fiber.Ctx) error {
	log := middleware.GetLoggerFromContext(ctx)
	ctxContext := ctx.UserContext()

	if err := controller.DB.Ping(ctxContext); err != nil {
		log.Error("postgresql health check failed", zap.Error(err))
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "postgres": "down"})
	}
	if err := controller.DBCache.Ping(ctxContext).Err(); err != nil {
		log.Error("redis health check failed", zap.Error(err))
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "redis": "down"})
	}
	return ctx.JSON(fiber.Map{"status": "ok"})
}

func (controller *OpsController) Stats(ctx *fiber.Ctx) error {
	return util.SendSuccessResponseWithData(ctx, fiber.Map{
		"dispatcher":   controller.Dispatcher.Stats(),
		"interest_job": controller.InterestJob.Status(),
	})
}

func (controller *OpsController) GetGuild(ctx *fiber.Ctx) error {
	guildId, err := uuid.Parse(ctx.Params("guildId"))
	if err != nil {
		return util.SendErrorResponse(ctx, invalidParam("guildId"))
	}

	guild, err := controller.GuildUsecase.GetGuild(ctx.UserContext(), guildId)
	if err != nil {
		return controller.mapError(ctx, err)
	}
	return util.SendSuccessResponseWithData(ctx, guild.Snapshot())
}

func (controller *OpsController) GetGuildStorage(ctx *fiber.Ctx) error {
	guildId, err := uuid.Parse(ctx.Params("guildId"))
	if err != nil {
		return util.SendErrorResponse(ctx, invalidParam("guildId"))
	}

	storage, err := controller.GuildUsecase.GetStorage(ctx.UserContext(), guildId)
	if err != nil {
		return controller.mapError(ctx, err)
	}
	return util.SendSuccessResponseWithData(ctx, storage.Snapshot())
}

func (controller *OpsController) GetParty(ctx *fiber.Ctx) error {
	partyId, err := uuid.Parse(ctx.Params("partyId"))
	if err != nil {
		return util.SendErrorResponse(ctx, invalidParam("partyId"))
	}

	party, err := controller.PartyUsecase.GetParty(ctx.UserContext(), partyId)
	if err != nil {
		return controller.mapError(ctx, err)
	}
	return util.SendSuccessResponseWithData(ctx, party.Snapshot())
}

func (controller *OpsController) ListFriends(ctx *fiber.Ctx) error {
	playerId, err := uuid.Parse(ctx.Params("playerId"))
	if err != nil {
		return util.SendErrorResponse(ctx, invalidParam("playerId"))
	}

	friendships, err := controller.FriendUsecase.ListFriends(ctx.UserContext(), playerId)
	if err != nil {
		return controller.mapError(ctx, err)
	}
	return util.SendSuccessResponseWithData(ctx, friendships)
}

func invalidParam(param string) error {
	return &model.ValidationError{
		Code:    constant.ERR_VALIDATION_CODE,
		Message: "Value is not a valid UUID",
		Param:   param,
	}
}

func (controller *OpsController) mapError(ctx *fiber.Ctx, err error) error {
	var notFound *model.NotFoundError
	if errors.As(err, &notFound) {
		return util.SendErrorResponseNotFound(ctx, notFound)
	}
	var validation *model.ValidationError
	if errors.As(err, &validation) {
		return util.SendErrorResponse(ctx, validation)
	}
	return util.SendErrorResponseInternalServer(ctx, middleware.GetLoggerFromContext(ctx), err)
}
