// Package snapshot prerenders embedded widgets by running the widget runtime
// against a host document and serializing the result.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/dom"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/fetcher"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/render"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/runtime"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	// DefaultCacheSize bounds the number of cached widget snapshots.
	DefaultCacheSize = 256
	// DefaultCacheTTL is how long a widget snapshot is served from cache.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultPageOrigin is the location given to generated host pages.
	DefaultPageOrigin = "https://snapshots.reviewhub.app"

	errorMessageWidgetUnavailable = "snapshot: widget data unavailable"
	errorMessageNoWidgets         = "snapshot: page has no widget embeds"
	errorMessageParsePage         = "snapshot: parse host page"
	errorMessageBuildPage         = "snapshot: build host page"

	logEventSnapshotRendered = "snapshot_rendered"
	logEventSnapshotCached   = "snapshot_cache_hit"
	logEventSnapshotFailed   = "snapshot_failed"
	logFieldWidgetID         = "widget_id"
	logFieldWidgets          = "widgets"
	logFieldFailed           = "failed"
	logFieldDuration         = "dur"

	hostPageTemplate = `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>ReviewHub</title></head><body>%s</body></html>`

	selectorFailedWidget = "[" + render.AttributeState + "=" + render.StateError + "]"
	selectorWidgetRoot   = "[" + render.AttributeState + "]"
)

var (
	ErrWidgetUnavailable = errors.New(errorMessageWidgetUnavailable)
	ErrNoWidgets         = errors.New(errorMessageNoWidgets)
)

// Request identifies one widget snapshot.
type Request struct {
	WidgetID      string
	Layout        widget.Layout
	ThemeColor    string
	ViewportWidth float64
}

func (request Request) cacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%g", strings.TrimSpace(request.WidgetID), request.Layout, strings.TrimSpace(request.ThemeColor), request.ViewportWidth)
}

// Result is a serialized host document after its widgets finished loading.
type Result struct {
	HTML    string
	Widgets int
	Failed  int
	Cached  bool
}

type Option func(*Renderer)

func WithLogger(logger *zap.Logger) Option {
	return func(renderer *Renderer) {
		if logger != nil {
			renderer.logger = logger
		}
	}
}

// WithFetcherMetrics records widget data requests made during rendering.
func WithFetcherMetrics(metrics *fetcher.Metrics) Option {
	return func(renderer *Renderer) {
		renderer.fetcherMetrics = metrics
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(renderer *Renderer) {
		renderer.metrics = metrics
	}
}

func WithFetcherFactory(factory runtime.FetcherFactory) Option {
	return func(renderer *Renderer) {
		renderer.fetcherFactory = factory
	}
}

// WithCache sizes the snapshot cache. A non-positive size disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(renderer *Renderer) {
		renderer.cacheSize = size
		renderer.cacheTTL = ttl
	}
}

func WithPageOrigin(origin string) Option {
	return func(renderer *Renderer) {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			renderer.pageOrigin = trimmed
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(renderer *Renderer) {
		if clock != nil {
			renderer.now = clock
		}
	}
}

// Renderer boots the widget runtime on host documents.
type Renderer struct {
	apiOrigin      string
	pageOrigin     string
	logger         *zap.Logger
	fetcherMetrics *fetcher.Metrics
	metrics        *Metrics
	fetcherFactory runtime.FetcherFactory
	now            func() time.Time
	cacheSize      int
	cacheTTL       time.Duration
	cache          *expirable.LRU[string, Result]
}

// NewRenderer builds a Renderer whose widgets load data from apiOrigin.
func NewRenderer(apiOrigin string, options ...Option) *Renderer {
	renderer := &Renderer{
		apiOrigin:  strings.TrimRight(strings.TrimSpace(apiOrigin), "/"),
		pageOrigin: DefaultPageOrigin,
		logger:     zap.NewNop(),
		now:        time.Now,
		cacheSize:  DefaultCacheSize,
		cacheTTL:   DefaultCacheTTL,
	}
	for _, option := range options {
		option(renderer)
	}
	if renderer.apiOrigin == "" {
		renderer.apiOrigin = runtime.DefaultProductionOrigin
	}
	if renderer.fetcherFactory == nil {
		logger := renderer.logger
		metrics := renderer.fetcherMetrics
		renderer.fetcherFactory = func(origin string) runtime.Fetcher {
			return fetcher.NewClient(origin, fetcher.WithLogger(logger), fetcher.WithMetrics(metrics))
		}
	}
	if renderer.cacheSize > 0 {
		renderer.cache = expirable.NewLRU[string, Result](renderer.cacheSize, nil, renderer.cacheTTL)
	}
	return renderer
}

func (renderer *Renderer) APIOrigin() string {
	return renderer.apiOrigin
}

// ScriptURL is the runtime bundle location embeds point at.
func (renderer *Renderer) ScriptURL() string {
	return renderer.apiOrigin + render.ScriptPath
}

// Render prerenders a single widget inside a generated host page. Snapshots
// whose widget ended in the error panel are returned with ErrWidgetUnavailable
// and never cached.
func (renderer *Renderer) Render(ctx context.Context, request Request) (Result, error) {
	key := request.cacheKey()
	if renderer.cache != nil {
		if cached, found := renderer.cache.Get(key); found {
			renderer.metrics.observeCache(cacheResultHit)
			renderer.logger.Debug(logEventSnapshotCached, zap.String(logFieldWidgetID, request.WidgetID))
			cached.Cached = true
			return cached, nil
		}
		renderer.metrics.observeCache(cacheResultMiss)
	}

	snippet, snippetErr := render.EmbedSnippet(widget.Config{
		WidgetID:   request.WidgetID,
		Layout:     request.Layout,
		ThemeColor: request.ThemeColor,
	}, renderer.ScriptURL())
	if snippetErr != nil {
		return Result{}, fmt.Errorf("%s: %w", errorMessageBuildPage, snippetErr)
	}

	result, renderErr := renderer.Prerender(ctx, strings.NewReader(fmt.Sprintf(hostPageTemplate, snippet)), renderer.pageOrigin, request.ViewportWidth)
	if renderErr != nil {
		return result, renderErr
	}
	if result.Failed > 0 {
		renderer.logger.Warn(logEventSnapshotFailed, zap.String(logFieldWidgetID, request.WidgetID))
		return result, ErrWidgetUnavailable
	}
	if renderer.cache != nil {
		renderer.cache.Add(key, result)
	}
	return result, nil
}

// Prerender boots every widget embedded in page, waits for their first load,
// and serializes the document. Listeners and autoplay loops are torn down
// before returning; the rendered markup stays in place.
func (renderer *Renderer) Prerender(ctx context.Context, page io.Reader, pageURL string, viewportWidth float64) (Result, error) {
	startedAt := renderer.now()
	document, parseErr := dom.Parse(page, dom.WithLocation(pageURL), dom.WithViewportWidth(viewportWidth))
	if parseErr != nil {
		return Result{}, fmt.Errorf("%s: %w", errorMessageParsePage, parseErr)
	}

	widgetRuntime := runtime.New(document,
		runtime.WithLogger(renderer.logger),
		runtime.WithFetcherFactory(renderer.fetcherFactory),
		runtime.WithProductionOrigin(renderer.apiOrigin),
		runtime.WithClock(renderer.now),
	)
	instances := widgetRuntime.Boot(ctx)
	widgetRuntime.Close()
	if len(instances) == 0 {
		return Result{HTML: document.String()}, ErrNoWidgets
	}

	result := Result{
		HTML:    document.String(),
		Widgets: len(document.Find(selectorWidgetRoot)),
		Failed:  len(document.Find(selectorFailedWidget)),
	}
	duration := renderer.now().Sub(startedAt)
	renderer.metrics.observeRender(duration, result.Failed == 0)
	renderer.logger.Info(logEventSnapshotRendered,
		zap.Int(logFieldWidgets, result.Widgets),
		zap.Int(logFieldFailed, result.Failed),
		zap.Duration(logFieldDuration, duration),
	)
	return result, nil
}
