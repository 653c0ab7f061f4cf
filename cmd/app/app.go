package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/endfieldpass/backend/cmd/app/server"
	"github.com/endfieldpass/backend/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "efpbackend",
		Description: "The EndfieldPass gacha history backend. Built with Go, fiber, bun and go.uber.org/fx.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
