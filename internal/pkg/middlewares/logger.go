package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/endfieldpass/backend/internal/pkg/flog"
)

const RequestIDHeader = "X-EndfieldPass-Request-ID"

func Logger(app *fiber.App) {
	chained(
		app,
		injectLogger(),
		flog.RequestIDHandler("request_id", RequestIDHeader),
		flog.RemoteAddrHandler("ip"),
		flog.MethodHandler("method"),
		flog.URLHandler("url"),
		requestLogger(),
	)
}

func chained(app *fiber.App, handlers ...func(ctx *fiber.Ctx) error) {
	for _, handler := range handlers {
		app.Use(handler)
	}
}

func injectLogger() func(ctx *fiber.Ctx) error {
	return flog.NewHandlerMiddleware(log.With().Logger())
}

func requestLogger() func(ctx *fiber.Ctx) error {
	return flog.AccessHandler(func(ctx *fiber.Ctx, duration time.Duration) {
		flog.FromFiberCtx(ctx).Info().
			Str("component", "httpreq").
			Int("status", ctx.Response().StatusCode()).
			Int("size", len(ctx.Response().Body())).
			Dur("duration", duration).
			Msg("received request")
	})
}
