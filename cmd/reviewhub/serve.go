package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/fetcher"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/httpapi"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/snapshot"
)

const (
	serveCommandUse                  = "serve"
	serveCommandShort                = "Run the widget HTTP server"
	flagNameApplicationAddress       = "app-addr"
	flagNameSnapshotCacheSize        = "snapshot-cache-size"
	flagNameSnapshotCacheTTL         = "snapshot-cache-ttl"
	flagUsageApplicationAddress      = "address for the HTTP server to listen on"
	flagUsageSnapshotCacheSize       = "number of widget snapshots kept in memory (0 disables caching)"
	flagUsageSnapshotCacheTTL        = "how long a widget snapshot is served from cache"
	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeySnapshotCacheSize  = "SNAPSHOT_CACHE_SIZE"
	environmentKeySnapshotCacheTTL   = "SNAPSHOT_CACHE_TTL"
	logEventListening                = "listening"
	logEventShutdown                 = "shutdown"
	logFieldAddress                  = "addr"
	logFieldAPIOrigin                = "api_origin"
	loggerContextServer              = "server"
	loggerContextMetrics             = "metrics"
	readHeaderTimeout                = 5 * time.Second
	shutdownTimeout                  = 10 * time.Second
)

// ServeConfig captures configuration needed to run the server.
type ServeConfig struct {
	ApplicationAddress string
	APIOrigin          string
	SnapshotCacheSize  int
	SnapshotCacheTTL   time.Duration
}

// ServeFunc runs server until ctx is cancelled.
type ServeFunc func(ctx context.Context, server *http.Server, logger *zap.Logger) error

func (application *Application) serveCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   serveCommandUse,
		Short: serveCommandShort,
		RunE:  application.runServe,
	}

	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeySnapshotCacheSize, defaultSnapshotCacheSize)
	application.configurationLoader.SetDefault(environmentKeySnapshotCacheTTL, defaultSnapshotCacheTTL)

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.Int(flagNameSnapshotCacheSize, defaultSnapshotCacheSize, flagUsageSnapshotCacheSize)
	commandFlags.Duration(flagNameSnapshotCacheTTL, defaultSnapshotCacheTTL, flagUsageSnapshotCacheTTL)

	if configurationErr := application.configureFlags(commandFlags, []flagBinding{
		{environmentKey: environmentKeyApplicationAddress, flagName: flagNameApplicationAddress},
		{environmentKey: environmentKeySnapshotCacheSize, flagName: flagNameSnapshotCacheSize},
		{environmentKey: environmentKeySnapshotCacheTTL, flagName: flagNameSnapshotCacheTTL},
	}); configurationErr != nil {
		return nil, configurationErr
	}
	return command, nil
}

func (application *Application) runServe(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serveConfig := ServeConfig{
		ApplicationAddress: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyApplicationAddress)),
		APIOrigin:          strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAPIOrigin)),
		SnapshotCacheSize:  application.configurationLoader.GetInt(environmentKeySnapshotCacheSize),
		SnapshotCacheTTL:   application.configurationLoader.GetDuration(environmentKeySnapshotCacheTTL),
	}
	if validationErr := ensureServeConfiguration(serveConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := application.buildLogger()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() {
		_ = logger.Sync()
	}()

	fetcherMetrics := fetcher.NewMetrics()
	snapshotMetrics, metricsErr := snapshot.NewMetrics(fetcherMetrics.Registry)
	if metricsErr != nil {
		logger.Error(loggerContextMetrics, zap.Error(metricsErr))
		return metricsErr
	}
	renderer := snapshot.NewRenderer(serveConfig.APIOrigin,
		snapshot.WithLogger(logger),
		snapshot.WithFetcherMetrics(fetcherMetrics),
		snapshot.WithMetrics(snapshotMetrics),
		snapshot.WithCache(serveConfig.SnapshotCacheSize, serveConfig.SnapshotCacheTTL),
	)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:        logger,
		Snapshots:     renderer,
		PublicBaseURL: serveConfig.APIOrigin,
		Gatherer:      fetcherMetrics.Registry,
	})

	httpServer := &http.Server{
		Addr:              serveConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	signalContext, stopSignals := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	logger.Info(logEventListening,
		zap.String(logFieldAddress, serveConfig.ApplicationAddress),
		zap.String(logFieldAPIOrigin, serveConfig.APIOrigin),
	)
	if serveErr := application.serveFunc(signalContext, httpServer, logger); serveErr != nil {
		logger.Error(loggerContextServer, zap.Error(serveErr))
		return serveErr
	}
	return nil
}

func ensureServeConfiguration(configuration ServeConfig) error {
	var missingParameters []string
	if configuration.ApplicationAddress == "" {
		missingParameters = append(missingParameters, flagNameApplicationAddress)
	}
	if configuration.APIOrigin == "" {
		missingParameters = append(missingParameters, flagNameAPIOrigin)
	}
	if len(missingParameters) > 0 {
		return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
	}

	if originErr := validateOrigin(configuration.APIOrigin); originErr != nil {
		return originErr
	}
	if configuration.SnapshotCacheSize < 0 {
		return fmt.Errorf("%s: %s must not be negative", invalidConfigurationMessage, flagNameSnapshotCacheSize)
	}
	if configuration.SnapshotCacheTTL < 0 {
		return fmt.Errorf("%s: %s must not be negative", invalidConfigurationMessage, flagNameSnapshotCacheTTL)
	}
	return nil
}

func validateOrigin(rawOrigin string) error {
	parsedOrigin, parseErr := url.Parse(rawOrigin)
	if parseErr != nil {
		return fmt.Errorf("%s: %s: %w", invalidConfigurationMessage, flagNameAPIOrigin, parseErr)
	}
	if (parsedOrigin.Scheme != "http" && parsedOrigin.Scheme != "https") || parsedOrigin.Host == "" {
		return fmt.Errorf("%s: %s must be an absolute http(s) URL", invalidConfigurationMessage, flagNameAPIOrigin)
	}
	return nil
}

func listenAndServe(ctx context.Context, server *http.Server, logger *zap.Logger) error {
	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- server.ListenAndServe()
	}()

	select {
	case serveErr := <-serveErrors:
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	case <-ctx.Done():
	}

	logger.Info(logEventShutdown)
	shutdownContext, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownContext)
}
