package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/snapshot"
)

const (
	renderCommandUse         = "render"
	renderCommandShort       = "Prerender every widget embedded in a host page"
	flagNamePage             = "page"
	flagNameOutput           = "out"
	flagNameViewport         = "viewport"
	flagNamePageURL          = "page-url"
	flagUsagePage            = "path of the host page HTML"
	flagUsageOutput          = "path to write the prerendered page to (stdout when empty)"
	flagUsageViewport        = "viewport width in CSS pixels used for responsive layouts"
	flagUsagePageURL         = "URL the host page is served from, used to resolve relative script sources"
	environmentKeyViewport   = "REVIEWHUB_VIEWPORT"
	environmentKeyPageURL    = "REVIEWHUB_PAGE_URL"
	logEventPagePrerendered  = "page_prerendered"
	logEventPrerenderPartial = "page_prerender_partial"
	logFieldPage             = "page"
	logFieldWidgets          = "widgets"
	logFieldFailed           = "failed"
	openPageErrorMessage     = "open host page"
	writeOutputErrorMessage  = "write prerendered page"
	outputFilePermissions    = 0o644
)

// RenderConfig captures configuration needed to prerender a host page.
type RenderConfig struct {
	PagePath      string
	OutputPath    string
	PageURL       string
	APIOrigin     string
	ViewportWidth float64
}

func (application *Application) renderCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   renderCommandUse,
		Short: renderCommandShort,
		RunE:  application.runRender,
	}

	application.configurationLoader.SetDefault(environmentKeyViewport, defaultRenderViewportWidth)
	application.configurationLoader.SetDefault(environmentKeyPageURL, "")

	commandFlags := command.Flags()
	commandFlags.String(flagNamePage, "", flagUsagePage)
	commandFlags.String(flagNameOutput, "", flagUsageOutput)
	commandFlags.Float64(flagNameViewport, defaultRenderViewportWidth, flagUsageViewport)
	commandFlags.String(flagNamePageURL, "", flagUsagePageURL)

	if configurationErr := application.configureFlags(commandFlags, []flagBinding{
		{environmentKey: environmentKeyViewport, flagName: flagNameViewport},
		{environmentKey: environmentKeyPageURL, flagName: flagNamePageURL},
	}); configurationErr != nil {
		return nil, configurationErr
	}

	if markErr := command.MarkFlagRequired(flagNamePage); markErr != nil {
		return nil, markErr
	}
	return command, nil
}

func (application *Application) runRender(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	commandFlags := command.Flags()
	pagePath, _ := commandFlags.GetString(flagNamePage)
	outputPath, _ := commandFlags.GetString(flagNameOutput)
	renderConfig := RenderConfig{
		PagePath:      strings.TrimSpace(pagePath),
		OutputPath:    strings.TrimSpace(outputPath),
		PageURL:       strings.TrimSpace(application.configurationLoader.GetString(environmentKeyPageURL)),
		APIOrigin:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAPIOrigin)),
		ViewportWidth: application.configurationLoader.GetFloat64(environmentKeyViewport),
	}
	if validationErr := ensureRenderConfiguration(renderConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := application.buildLogger()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() {
		_ = logger.Sync()
	}()

	pageFile, openErr := os.Open(renderConfig.PagePath)
	if openErr != nil {
		return fmt.Errorf("%s: %w", openPageErrorMessage, openErr)
	}
	defer pageFile.Close()

	renderer := snapshot.NewRenderer(renderConfig.APIOrigin, snapshot.WithLogger(logger), snapshot.WithCache(0, 0))
	result, renderErr := renderer.Prerender(command.Context(), pageFile, renderConfig.PageURL, renderConfig.ViewportWidth)
	if renderErr != nil && !errors.Is(renderErr, snapshot.ErrNoWidgets) {
		return renderErr
	}
	if result.Failed > 0 {
		logger.Warn(logEventPrerenderPartial,
			zap.String(logFieldPage, renderConfig.PagePath),
			zap.Int(logFieldFailed, result.Failed),
		)
	}

	if writeErr := writeOutput(command.OutOrStdout(), renderConfig.OutputPath, result.HTML); writeErr != nil {
		return fmt.Errorf("%s: %w", writeOutputErrorMessage, writeErr)
	}
	logger.Info(logEventPagePrerendered,
		zap.String(logFieldPage, renderConfig.PagePath),
		zap.Int(logFieldWidgets, result.Widgets),
	)
	return nil
}

func ensureRenderConfiguration(configuration RenderConfig) error {
	var missingParameters []string
	if configuration.PagePath == "" {
		missingParameters = append(missingParameters, flagNamePage)
	}
	if configuration.APIOrigin == "" {
		missingParameters = append(missingParameters, flagNameAPIOrigin)
	}
	if len(missingParameters) > 0 {
		return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
	}
	if configuration.ViewportWidth <= 0 {
		return fmt.Errorf("%s: %s must be positive", invalidConfigurationMessage, flagNameViewport)
	}
	return validateOrigin(configuration.APIOrigin)
}

func writeOutput(standardOutput io.Writer, outputPath string, markup string) error {
	if outputPath == "" {
		_, writeErr := io.WriteString(standardOutput, markup)
		return writeErr
	}
	return os.WriteFile(outputPath, []byte(markup), outputFilePermissions)
}
