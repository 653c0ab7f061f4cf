package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/server/svr"
	"github.com/endfieldpass/backend/internal/service"
)

type StatsController struct {
	StatsService *service.StatsService
}

func RegisterStats(v1 *svr.V1, statsService *service.StatsService) {
	c := &StatsController{
		StatsService: statsService,
	}

	v1.Get("/stats/dashboard", c.Dashboard)
	v1.Get("/stats/version-top", c.VersionTop)
}

func (c *StatsController) Dashboard(ctx *fiber.Ctx) error {
	cards, err := c.StatsService.Dashboard(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"cards": cards,
	})
}

func (c *StatsController) VersionTop(ctx *fiber.Ctx) error {
	stats, err := c.StatsService.VersionTop(ctx.UserContext())
	if err != nil {
		return err
	}
	if stats == nil {
		// no banner catalog entry matches any version yet
		stats = &model.VersionTopStats{
			Stats: []*model.VersionTopRow{},
		}
	}
	return ctx.JSON(stats)
}
