package v1

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/server/svr"
	"github.com/endfieldpass/backend/internal/service"
)

type HistoryController struct {
	CodecService *service.CodecService
}

func RegisterHistory(v1 *svr.V1, codecService *service.CodecService) {
	c := &HistoryController{
		CodecService: codecService,
	}

	v1.Get("/history/export", c.Export)
	v1.Post("/history/import", c.Import)
}

func (c *HistoryController) Export(ctx *fiber.Ctx) error {
	payload, err := c.CodecService.ExportPayload(ctx.UserContext())
	if err != nil {
		return err
	}

	// pretty-printed so the downloaded snapshot stays hand-inspectable
	blob, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+service.ExportFilename(time.Now())+`"`)
	return ctx.Send(blob)
}

func (c *HistoryController) Import(ctx *fiber.Ctx) error {
	body := ctx.Body()
	if len(body) == 0 {
		return gerr.ErrBadPayload
	}

	result, err := c.CodecService.ImportPayload(ctx.UserContext(), body)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}
