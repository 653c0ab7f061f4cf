package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/model/types"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/server/svr"
	"github.com/endfieldpass/backend/internal/service"
	"github.com/endfieldpass/backend/internal/util/rekuest"
)

type ImportController struct {
	ImportService *service.ImportService
}

func RegisterImport(v1 *svr.V1, importService *service.ImportService) {
	c := &ImportController{
		ImportService: importService,
	}

	v1.Post("/import/sessions", c.CreateSession)
	v1.Get("/import/sessions", c.ListSessions)
	v1.Get("/import/sessions/:sessionId/status", c.SessionStatus)
	v1.Get("/import/sessions/:sessionId/pulls", c.SessionPulls)
}

func (c *ImportController) CreateSession(ctx *fiber.Ctx) error {
	var req types.CreateSessionRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	resp, err := c.ImportService.CreateSession(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(resp)
}

func (c *ImportController) ListSessions(ctx *fiber.Ctx) error {
	sessions, err := c.ImportService.Sessions(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"sessions": sessions,
	})
}

func (c *ImportController) SessionStatus(ctx *fiber.Ctx) error {
	sessionID, err := ctx.ParamsInt("sessionId")
	if err != nil {
		return gerr.ErrInvalidReq.Msg("invalid session id")
	}

	status, err := c.ImportService.Status(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(status)
}

func (c *ImportController) SessionPulls(ctx *fiber.Ctx) error {
	sessionID, err := ctx.ParamsInt("sessionId")
	if err != nil {
		return gerr.ErrInvalidReq.Msg("invalid session id")
	}

	session, err := c.ImportService.SessionPulls(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}
	items := session.Pulls
	if items == nil {
		items = []*model.Pull{}
	}
	return ctx.JSON(fiber.Map{
		"session_id": session.SessionID,
		"count":      len(items),
		"items":      items,
	})
}
