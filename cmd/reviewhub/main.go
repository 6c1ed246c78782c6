package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/runtime"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/snapshot"
)

const (
	commandUseName               = "reviewhub"
	commandShortDescription      = "ReviewHub widget runtime tooling"
	commandLongDescription       = "Serve widget stylesheets, embed snippets and prerendered snapshots, or prerender the widgets of a host page"
	loggerCreationErrorMessage   = "logger"
	commandInitializationFailure = "failed to configure command"
	flagNotDefinedMessage        = "flag %s not defined"
	environmentConfigurationErr  = "failed to apply environment configuration"
	missingConfigurationMessage  = "missing required configuration"
	invalidConfigurationMessage  = "invalid configuration"
	unexpectedArgumentsMessage   = "unexpected command arguments"

	flagNameAPIOrigin          = "api-origin"
	flagNameVerbose            = "verbose"
	flagUsageAPIOrigin         = "origin of the review API widgets load data from"
	flagUsageVerbose           = "enable development logging"
	environmentKeyAPIOrigin    = "REVIEWHUB_API_ORIGIN"
	environmentKeyVerbose      = "REVIEWHUB_VERBOSE"
	defaultSnapshotCacheSize   = snapshot.DefaultCacheSize
	defaultSnapshotCacheTTL    = snapshot.DefaultCacheTTL
	defaultApplicationAddress  = ":8080"
	defaultRenderViewportWidth = 1280.0
)

// flagBinding ties a command flag to the configuration key it populates.
type flagBinding struct {
	environmentKey string
	flagName       string
}

// Application constructs and executes the reviewhub command tree.
type Application struct {
	configurationLoader *viper.Viper
	loggerFactory       func(verbose bool) (*zap.Logger, error)
	serveFunc           ServeFunc
}

// NewApplication creates an Application with default dependencies.
func NewApplication() *Application {
	return &Application{
		configurationLoader: viper.New(),
		loggerFactory:       newLogger,
		serveFunc:           listenAndServe,
	}
}

// WithLoggerFactory overrides how command loggers are built.
func (application *Application) WithLoggerFactory(loggerFactory func(verbose bool) (*zap.Logger, error)) *Application {
	if loggerFactory != nil {
		application.loggerFactory = loggerFactory
	}
	return application
}

// WithServeFunc overrides the HTTP server runner used by the serve command.
func (application *Application) WithServeFunc(serveFunc ServeFunc) *Application {
	if serveFunc != nil {
		application.serveFunc = serveFunc
	}
	return application
}

// Command builds the root command with its serve and render subcommands.
func (application *Application) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
	}

	application.configurationLoader.SetDefault(environmentKeyAPIOrigin, runtime.DefaultProductionOrigin)
	application.configurationLoader.SetDefault(environmentKeyVerbose, false)
	application.configurationLoader.AutomaticEnv()

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.String(flagNameAPIOrigin, runtime.DefaultProductionOrigin, flagUsageAPIOrigin)
	persistentFlags.Bool(flagNameVerbose, false, flagUsageVerbose)
	if configurationErr := application.configureFlags(persistentFlags, []flagBinding{
		{environmentKey: environmentKeyAPIOrigin, flagName: flagNameAPIOrigin},
		{environmentKey: environmentKeyVerbose, flagName: flagNameVerbose},
	}); configurationErr != nil {
		return nil, configurationErr
	}

	serveCommand, serveErr := application.serveCommand()
	if serveErr != nil {
		return nil, serveErr
	}
	renderCommand, renderErr := application.renderCommand()
	if renderErr != nil {
		return nil, renderErr
	}
	rootCommand.AddCommand(serveCommand, renderCommand)
	return rootCommand, nil
}

// configureFlags binds each flag into viper and lets a present environment
// variable override the flag default.
func (application *Application) configureFlags(flagSet *pflag.FlagSet, bindings []flagBinding) error {
	for _, binding := range bindings {
		if bindErr := application.bindFlag(flagSet, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
	}
	for _, binding := range bindings {
		if environmentErr := application.applyEnvironmentConfiguration(flagSet, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}
	return nil
}

func (application *Application) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *Application) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationErr, setErr)
	}

	return nil
}

func (application *Application) buildLogger() (*zap.Logger, error) {
	logger, loggerErr := application.loggerFactory(application.configurationLoader.GetBool(environmentKeyVerbose))
	if loggerErr != nil {
		return nil, fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	return logger, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	application := NewApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
