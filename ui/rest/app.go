package rest

import (
	"github.com/AzielCF/az-mediaext/config"
	"github.com/AzielCF/az-mediaext/pkg/mediagroup"
	"github.com/AzielCF/az-mediaext/pkg/msgworker"
	"github.com/AzielCF/az-mediaext/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type App struct {
	pool    *msgworker.MessageWorkerPool
	delayer *mediagroup.Delayer
}

// InitRestApp registra los endpoints de salud y monitoreo del bot.
func InitRestApp(app fiber.Router, pool *msgworker.MessageWorkerPool, delayer *mediagroup.Delayer) App {
	rest := App{pool: pool, delayer: delayer}

	app.Get("/health", rest.Health)
	app.Get("/app/version", rest.GetVersion)

	g := app.Group("/monitoring")
	g.Get("/workerpool", rest.GetWorkerPoolStats)
	g.Get("/mediagroups", rest.GetMediaGroupStats)

	return rest
}

func (handler *App) Health(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service is healthy",
	})
}

func (handler *App) GetVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": config.AppVersion,
	})
}

// GetWorkerPoolStats returns real-time worker pool statistics
func (handler *App) GetWorkerPoolStats(c *fiber.Ctx) error {
	return c.JSON(handler.pool.GetStats())
}

// GetMediaGroupStats returns real-time media batching statistics
func (handler *App) GetMediaGroupStats(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Media group stats retrieved",
		Results: handler.delayer.GetStats(),
	})
}
