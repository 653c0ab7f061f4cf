package v1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/server/svr"
	"github.com/endfieldpass/backend/internal/service"
)

type PullController struct {
	ImportService *service.ImportService
}

func RegisterPull(v1 *svr.V1, importService *service.ImportService) {
	c := &PullController{
		ImportService: importService,
	}

	v1.Get("/pulls", c.GetPulls)
}

func (c *PullController) GetPulls(ctx *fiber.Ctx) error {
	query := service.PullsQuery{
		PoolID: ctx.Query("pool_id"),
	}
	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return gerr.ErrInvalidReq.Msg("invalid limit: %s", raw)
		}
		query.Limit = &limit
	}
	if raw := ctx.Query("session_id"); raw != "" {
		sessionID, err := strconv.Atoi(raw)
		if err != nil {
			return gerr.ErrInvalidReq.Msg("invalid session_id: %s", raw)
		}
		query.SessionID = &sessionID
	}

	result, err := c.ImportService.Pulls(ctx.UserContext(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}
