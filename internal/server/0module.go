package server

import (
	"go.uber.org/fx"

	"github.com/endfieldpass/backend/internal/server/httpserver"
	"github.com/endfieldpass/backend/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(httpserver.Create),
		fx.Provide(svr.CreateEndpointGroups))
}
