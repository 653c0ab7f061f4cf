package meta

import (
	"github.com/gofiber/fiber/v2"

	"github.com/endfieldpass/backend/internal/pkg/bininfo"
)

func RegisterIndex(app *fiber.App) {
	app.Get("/api", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "endfieldpass-backend",
			"message": "Welcome to the EndfieldPass API",
			"version": bininfo.Version,
		})
	})
}
