package appconfig

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/endfieldpass/backend/internal/app/appcontext"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

func Parse(ctx appcontext.Ctx) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	var config ConfigSpec
	err = envconfig.Process("endfieldpass", &config)
	if err != nil {
		_ = envconfig.Usage("endfieldpass", &config)
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if config.StoreDriver != StoreDriverMemory && config.StoreDriver != StoreDriverPostgres {
		return nil, fmt.Errorf("invalid store driver %q: expect %q or %q", config.StoreDriver, StoreDriverMemory, StoreDriverPostgres)
	}
	if config.StoreDriver == StoreDriverPostgres && config.PostgresDSN == "" {
		return nil, fmt.Errorf("store driver %q requires ENDFIELDPASS_POSTGRES_DSN", StoreDriverPostgres)
	}

	return &Config{
		ConfigSpec: config,
		AppContext: ctx,
	}, nil
}
