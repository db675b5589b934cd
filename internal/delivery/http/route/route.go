package route

import (
	"github.com/lodestonenet/lodestone/internal/delivery/http"
	"github.com/lodestonenet/lodestone/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type RouteConfig struct {
	App           *fiber.App
	OpsController *http.OpsController
	Log           *zap.Logger
	Config        *koanf.Koanf
}

// SetupRoute wires the internal ops surface. Everything here is read
// only; all writes go through the usecase entry points driven by game
// commands and the message channels.
func (c *RouteConfig) SetupRoute() {
	c.App.Use(middleware.SetupRateLimiter(c.Log))

	c.App.Get("/healthz", c.OpsController.Health)

	api := c.App.Group("/api")
	api.Get("/stats", c.OpsController.Stats)

	guildGroup := api.Group("/guilds")
	guildGroup.Get("/:guildId", c.OpsController.GetGuild)
	guildGroup.Get("/:guildId/storage", c.OpsController.GetGuildStorage)

	partyGroup := api.Group("/parties")
	partyGroup.Get("/:partyId", c.OpsController.GetParty)

	playerGroup := api.Group("/players")
	playerGroup.Get("/:playerId/friends", c.OpsController.ListFriends)
}
