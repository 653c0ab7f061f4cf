package appconfig

import (
	"time"

	"github.com/endfieldpass/backend/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address the app would listen on for serving service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9310"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// TrustedProxies is a list of trusted proxies that are trusted to report a real IP via the X-Forwarded-For header.
	TrustedProxies []string `required:"true" split_words:"true" default:"::1,127.0.0.1,10.0.0.0/8"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// provide a more contextual message when encountered a panic.
	DevMode bool `split_words:"true"`

	// StoreDriver selects the import session store implementation.
	// Valid values are: memory (process-local, lost on restart), postgres (durable, transactional).
	StoreDriver string `split_words:"true" default:"memory"`

	// PostgresDSN is the data source name for the PostgreSQL database. Only needed when StoreDriver
	// is postgres. See https://bun.uptrace.dev/postgres/#pgdriver for details on how to construct it.
	PostgresDSN string `split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// UpstreamBaseURL is the base URL of the official gacha record webview API.
	UpstreamBaseURL string `required:"true" split_words:"true" default:"https://ef-webview.gryphline.com"`

	// UpstreamTimeout bounds every single page request against the upstream API.
	UpstreamTimeout time.Duration `required:"true" split_words:"true" default:"20s"`

	// UpstreamPageDelay is the pause inserted between two page requests of one pool
	// to avoid hammering the upstream API.
	UpstreamPageDelay time.Duration `required:"true" split_words:"true" default:"150ms"`

	// ExternalBaseURL, when set, overrides the host used to build OAuth callback URLs
	// (typically needed behind a reverse proxy).
	ExternalBaseURL string `split_words:"true"`

	// GoogleOAuthClientID and friends configure the Google Drive sync provider.
	// The provider stays visible but unconnectable while unconfigured.
	GoogleOAuthClientID     string `split_words:"true"`
	GoogleOAuthClientSecret string `split_words:"true"`
	GoogleOAuthScope        string `split_words:"true" default:"https://www.googleapis.com/auth/drive.file"`

	// YandexOAuthClientID and friends configure the Yandex Disk sync provider.
	YandexOAuthClientID     string `split_words:"true"`
	YandexOAuthClientSecret string `split_words:"true"`
	YandexOAuthScope        string `split_words:"true"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
