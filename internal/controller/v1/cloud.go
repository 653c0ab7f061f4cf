package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/endfieldpass/backend/internal/model/types"
	"github.com/endfieldpass/backend/internal/server/svr"
	"github.com/endfieldpass/backend/internal/service"
	"github.com/endfieldpass/backend/internal/util/rekuest"
)

type CloudController struct {
	CloudService *service.CloudService
}

func RegisterCloud(v1 *svr.V1, cloudService *service.CloudService) {
	c := &CloudController{
		CloudService: cloudService,
	}

	v1.Get("/cloud/providers", c.Providers)
	v1.Get("/cloud/:provider/connect", c.Connect)
	v1.Get("/cloud/:provider/callback", c.Callback)
	v1.Post("/cloud/:provider/disconnect", c.Disconnect)
	v1.Post("/cloud/export", c.Export)
	v1.Post("/cloud/import", c.Import)
}

func (c *CloudController) Providers(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"providers": c.CloudService.Providers(),
	})
}

func (c *CloudController) Connect(ctx *fiber.Ctx) error {
	authURL, state, err := c.CloudService.AuthorizationURL(ctx.Params("provider"))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"authorization_url": authURL,
		"state":             state,
	})
}

func (c *CloudController) Callback(ctx *fiber.Ctx) error {
	err := c.CloudService.HandleCallback(
		ctx.UserContext(),
		ctx.Params("provider"),
		ctx.Query("state"),
		ctx.Query("code"),
		ctx.Query("error"),
	)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"connected": true,
	})
}

func (c *CloudController) Disconnect(ctx *fiber.Ctx) error {
	if err := c.CloudService.Disconnect(ctx.Params("provider")); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"disconnected": true,
	})
}

func (c *CloudController) Export(ctx *fiber.Ctx) error {
	var req types.CloudExportRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	result, err := c.CloudService.Export(ctx.UserContext(), req.Provider)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

func (c *CloudController) Import(ctx *fiber.Ctx) error {
	var req types.CloudImportRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	result, err := c.CloudService.Import(ctx.UserContext(), req.Provider, req.RemoteRef)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}
