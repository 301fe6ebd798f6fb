package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/events"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/firmware"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/integrations"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/messaging"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/notifications"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/router"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/tracing"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/webevents"
	"github.com/spoolsync/spool-mgmt/internal/pkg/presentation/api"
)

const serviceName string = "spool-mgmt"

type flagType int
type flagMap map[flagType]string

const (
	listenAddress flagType = iota
	servicePort
	enableTracing
	allowedOrigins

	configurationFile
	rabbitMQURL

	pollIntervalMs
	debounceDelayMs

	devmode
)

func defaultFlags() flagMap {
	return flagMap{
		listenAddress:  "0.0.0.0",
		servicePort:    "8080",
		enableTracing:  "true",
		allowedOrigins: "",

		configurationFile: "/opt/spoolsync/config/config.yaml",
		rabbitMQURL:       "",

		pollIntervalMs:  "30000",
		debounceDelayMs: "5000",

		devmode: "false",
	}
}

func main() {
	ctx, flags := parseExternalConfig(context.Background(), defaultFlags())

	serviceVersion := version()
	ctx, logger := logging.NewLogger(ctx, serviceName, serviceVersion)
	logger.Info().Msg("starting up ...")

	if flags[enableTracing] == "true" {
		cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init tracing")
		}
		defer cleanup()
	}

	cfg, err := loadConfiguration(flags[configurationFile], logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load configuration")
	}

	store, err := newStore(ctx, flags)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create or connect to database")
	}

	r, shutdown, err := initialize(ctx, flags, cfg, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize service")
	}
	defer shutdown()

	addr := flags[listenAddress] + ":" + flags[servicePort]
	logger.Info().Str("addr", addr).Msg("starting to listen for connections")

	err = http.ListenAndServe(addr, r)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start request router")
	}
}

func initialize(ctx context.Context, flags flagMap, cfg *application.Config, store database.Store) (*chi.Mux, func(), error) {
	pollInterval, err := milliseconds(flags[pollIntervalMs])
	if err != nil {
		return nil, nil, fmt.Errorf("bad printer poll interval: %w", err)
	}

	debounceDelay, err := milliseconds(flags[debounceDelayMs])
	if err != nil {
		return nil, nil, fmt.Errorf("bad ingest debounce delay: %w", err)
	}

	we := webevents.New()
	sinks := []events.Sink{we}
	closers := []func(){we.Shutdown}

	shutdown := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if flags[rabbitMQURL] != "" {
		publisher, err := messaging.New(ctx, messaging.Config{
			URL:      flags[rabbitMQURL],
			Exchange: messaging.DefaultExchange,
			Source:   serviceName,
		})
		if err != nil {
			shutdown()
			return nil, nil, fmt.Errorf("failed to connect to message broker: %w", err)
		}

		sinks = append(sinks, publisher)
		closers = append(closers, func() { publisher.Close() })
	}

	if len(cfg.Notifications) > 0 {
		sender, err := notifications.New(cfg.Notifications)
		if err != nil {
			shutdown()
			return nil, nil, fmt.Errorf("failed to create notification sender: %w", err)
		}
		sinks = append(sinks, sender)
		closers = append(closers, sender.Close)
	}

	app := application.New(ctx, store, integrations.FromConfig(cfg.Integrations), firmware.New(), events.Fanout(sinks...), application.Options{
		PollInterval:  pollInterval,
		DebounceDelay: debounceDelay,
	})

	app.Start(ctx)
	closers = append(closers, app.Stop)

	r := router.New(serviceName, origins(flags[allowedOrigins])...)
	api.RegisterHandlers(ctx, r, app, we.Handler())

	return r, shutdown, nil
}

func newStore(ctx context.Context, flags flagMap) (database.Store, error) {
	if flags[devmode] == "true" {
		return database.New(database.NewSQLiteConnector(ctx))
	}
	return database.New(database.NewPostgreSQLConnector(ctx, database.LoadConfigFromEnv(ctx)))
}

// loadConfiguration falls back to an empty configuration when the file does not exist.
func loadConfiguration(path string, logger zerolog.Logger) (*application.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("path", path).Msg("configuration file not found, no printer integrations will be available")
			return &application.Config{}, nil
		}
		return nil, err
	}
	defer f.Close()

	return application.LoadConfiguration(f)
}

func origins(value string) []string {
	result := []string{}
	for _, o := range strings.Split(value, ",") {
		if o = strings.TrimSpace(o); o != "" {
			result = append(result, o)
		}
	}
	return result
}

func milliseconds(value string) (time.Duration, error) {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("negative duration %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseExternalConfig(ctx context.Context, flags flagMap) (context.Context, flagMap) {
	// Allow environment variables to override certain defaults
	envOrDef := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return def
	}

	flags[listenAddress] = envOrDef("LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = envOrDef("SERVICE_PORT", flags[servicePort])
	flags[enableTracing] = envOrDef("ENABLE_TRACING", flags[enableTracing])
	flags[allowedOrigins] = envOrDef("CORS_ALLOWED_ORIGINS", flags[allowedOrigins])
	flags[rabbitMQURL] = envOrDef("RABBITMQ_URL", flags[rabbitMQURL])
	flags[pollIntervalMs] = envOrDef("PRINTER_POLL_INTERVAL_MS", flags[pollIntervalMs])
	flags[debounceDelayMs] = envOrDef("INGEST_DEBOUNCE_MS", flags[debounceDelayMs])

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("config", "printer integrations and notifications configuration file", apply(configurationFile))
	flag.Func("devmode", "use an in-memory database", apply(devmode))
	flag.Parse()

	return ctx, flags
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}
