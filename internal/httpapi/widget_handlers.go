package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/render"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/snapshot"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/styles"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	queryWidgetID    = "widget_id"
	queryLayout      = "layout"
	queryContainerID = "container_id"
	queryThemeColor  = "theme_color"
	queryName        = "name"
	queryViewport    = "viewport"
	paramWidgetID    = "widgetId"

	errorValueMissingWidgetID = "missing_widget_id"
	errorValueInvalidLayout   = "invalid_layout"
	errorValueInvalidViewport = "invalid_viewport"
	errorValueRenderFailed    = "render_failed"

	contentTypeCSS  = "text/css; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"

	// HeaderSnapshotCache reports whether a snapshot came from cache.
	HeaderSnapshotCache = "X-ReviewHub-Snapshot-Cache"
	snapshotCacheHit    = "hit"
	snapshotCacheMiss   = "miss"

	headerCacheControl     = "Cache-Control"
	stylesheetCacheControl = "public, max-age=3600"
	snapshotCacheControl   = "public, max-age=60"

	maximumViewportWidth = 7680

	logEventSnippetFailed     = "embed_snippet_failed"
	logEventSnapshotFailed    = "snapshot_render_failed"
	logEventSnapshotUnhealthy = "snapshot_widget_unavailable"
	logFieldWidgetID          = "widget_id"
)

// SnapshotRenderer prerenders one widget into a host page.
type SnapshotRenderer interface {
	Render(ctx context.Context, request snapshot.Request) (snapshot.Result, error)
}

// WidgetHandlers serves the embed surfaces: stylesheet, snippets and snapshots.
type WidgetHandlers struct {
	logger        *zap.Logger
	snapshots     SnapshotRenderer
	publicBaseURL string
}

// NewWidgetHandlers builds handlers whose snippets load the runtime bundle from publicBaseURL.
func NewWidgetHandlers(logger *zap.Logger, snapshots SnapshotRenderer, publicBaseURL string) *WidgetHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WidgetHandlers{
		logger:        logger,
		snapshots:     snapshots,
		publicBaseURL: normalizeBaseURL(publicBaseURL),
	}
}

func (handlers *WidgetHandlers) Stylesheet(context *gin.Context) {
	context.Header(headerCacheControl, stylesheetCacheControl)
	context.Data(http.StatusOK, contentTypeCSS, []byte(styles.Stylesheet()))
}

type embedSnippetResponse struct {
	Snippet string `json:"snippet"`
}

// EmbedSnippet returns the script-tag embed for a widget. The script URL points
// at ScriptPath on the public base URL, which this server does not serve; the
// snippet is the page markup the snapshot and render prerenderers boot.
func (handlers *WidgetHandlers) EmbedSnippet(context *gin.Context) {
	layout, layoutValid := parseLayoutParameter(context.Query(queryLayout))
	if !layoutValid {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidLayout})
		return
	}

	config := widget.Config{
		WidgetID:    strings.TrimSpace(context.Query(queryWidgetID)),
		ContainerID: strings.TrimSpace(context.Query(queryContainerID)),
		ThemeColor:  strings.TrimSpace(context.Query(queryThemeColor)),
		Name:        strings.TrimSpace(context.Query(queryName)),
		Layout:      layout,
	}
	snippet, snippetErr := render.EmbedSnippet(config, joinBaseURL(handlers.publicBaseURL, render.ScriptPath))
	if errors.Is(snippetErr, widget.ErrMissingWidgetID) {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueMissingWidgetID})
		return
	}
	if snippetErr != nil {
		handlers.logger.Error(logEventSnippetFailed, zap.Error(snippetErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueRenderFailed})
		return
	}
	context.JSON(http.StatusOK, embedSnippetResponse{Snippet: snippet})
}

func (handlers *WidgetHandlers) Snapshot(context *gin.Context) {
	layout, layoutValid := parseLayoutParameter(context.Query(queryLayout))
	if !layoutValid {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidLayout})
		return
	}
	viewportWidth, viewportValid := parseViewportParameter(context.Query(queryViewport))
	if !viewportValid {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidViewport})
		return
	}

	request := snapshot.Request{
		WidgetID:      strings.TrimSpace(context.Param(paramWidgetID)),
		Layout:        layout,
		ThemeColor:    strings.TrimSpace(context.Query(queryThemeColor)),
		ViewportWidth: viewportWidth,
	}
	result, renderErr := handlers.snapshots.Render(context.Request.Context(), request)
	switch {
	case errors.Is(renderErr, widget.ErrMissingWidgetID):
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueMissingWidgetID})
		return
	case errors.Is(renderErr, snapshot.ErrWidgetUnavailable):
		handlers.logger.Warn(logEventSnapshotUnhealthy, zap.String(logFieldWidgetID, request.WidgetID))
		context.Data(http.StatusBadGateway, contentTypeHTML, []byte(result.HTML))
		return
	case renderErr != nil:
		handlers.logger.Error(logEventSnapshotFailed, zap.String(logFieldWidgetID, request.WidgetID), zap.Error(renderErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueRenderFailed})
		return
	}

	cacheState := snapshotCacheMiss
	if result.Cached {
		cacheState = snapshotCacheHit
	}
	context.Header(HeaderSnapshotCache, cacheState)
	context.Header(headerCacheControl, snapshotCacheControl)
	context.Data(http.StatusOK, contentTypeHTML, []byte(result.HTML))
}

func Healthz(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{"status": "ok"})
}
