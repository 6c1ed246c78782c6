package runtime

import (
	"context"
	"errors"
	"html/template"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/carousel"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/dom"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/fetcher"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/render"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	logEventLoadFailed     = "widget_load_failed"
	logEventLoadSkipped    = "widget_load_skipped"
	logEventLoaded         = "widget_loaded"
	logEventRenderFailed   = "widget_render_failed"
	logEventLoadMoreFailed = "widget_load_more_failed"
	logEventDisposed       = "widget_disposed"
	logFieldWidgetID       = "widget_id"
	logFieldReviewCount    = "review_count"
	logFieldErrorKind      = "error_kind"

	messageFetchFailed   = "We couldn't load reviews right now. Please check your connection and try again."
	messageFetchTimedOut = "Loading reviews took too long. Please try again."

	attributeDisabled    = "disabled"
	attributeAriaHidden  = "aria-hidden"
	selectorActionTarget = "[data-action]"
	keyEscape            = "Escape"
)

// Instance is one widget bound to one container. It owns the container's
// subtree, its listeners and its autoplay loop.
type Instance struct {
	id        string
	runtime   *Runtime
	config    widget.Config
	container *html.Node
	fetcher   Fetcher
	logger    *zap.Logger

	lifetime context.Context
	cancel   context.CancelFunc

	mutex          sync.Mutex
	disposed       bool
	loadGeneration int
	layout         widget.Layout
	data           widget.Data
	reviews        []widget.Review
	loadedCount    int
	loadingMore    bool
	listeners      []*dom.Listener
	modalListeners []*dom.Listener
	modal          *html.Node
	engine         *carousel.Engine
	autoplay       *carousel.Autoplay
}

func newInstance(ctx context.Context, runtime *Runtime, config widget.Config, container *html.Node) *Instance {
	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))
	identifier := uuid.NewString()
	return &Instance{
		id:        identifier,
		runtime:   runtime,
		config:    config,
		container: container,
		fetcher:   runtime.newFetcher(config.APIOrigin),
		logger: runtime.logger.With(
			zap.String(logFieldInstanceID, identifier),
			zap.String(logFieldWidgetID, config.WidgetID),
			zap.String(logFieldContainerID, config.ContainerID),
		),
		lifetime: lifetime,
		cancel:   cancel,
	}
}

func (instance *Instance) ID() string {
	return instance.id
}

func (instance *Instance) Config() widget.Config {
	return instance.config
}

func (instance *Instance) Container() *html.Node {
	return instance.container
}

// Layout returns the layout of the last successful render.
func (instance *Instance) Layout() widget.Layout {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.layout
}

// Reviews returns the reviews currently rendered, in card index order.
func (instance *Instance) Reviews() []widget.Review {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return append([]widget.Review(nil), instance.reviews...)
}

// Carousel returns the carousel engine, or nil for other layouts.
func (instance *Instance) Carousel() *carousel.Engine {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.engine
}

// AutoplayRunning reports whether the carousel autoplay loop is active.
func (instance *Instance) AutoplayRunning() bool {
	instance.mutex.Lock()
	autoplay := instance.autoplay
	instance.mutex.Unlock()
	return autoplay.Running()
}

// fetchContext is done when either ctx is done or the instance is disposed.
func (instance *Instance) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	fetchContext, cancel := context.WithCancel(instance.lifetime)
	stopPropagation := context.AfterFunc(ctx, cancel)
	return fetchContext, func() {
		stopPropagation()
		cancel()
	}
}

func (instance *Instance) Disposed() bool {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.disposed
}

// Load shows the loading panel, fetches the first batch and renders the
// content, empty or error panel. A failed fetch renders an error panel whose
// Try Again action calls Load again.
func (instance *Instance) Load(ctx context.Context) error {
	if instance.Disposed() {
		return ErrInstanceDisposed
	}
	instance.teardownBehaviors()

	instance.mutex.Lock()
	instance.loadGeneration++
	generation := instance.loadGeneration
	instance.mutex.Unlock()

	instance.runtime.injectStyles()

	requestedLayout := widget.ResolveLayout(string(instance.config.Layout))
	if applyErr := instance.apply(render.LoadingPanel(requestedLayout, instance.config.ThemeColor)); applyErr != nil {
		instance.logger.Debug(logEventLoadSkipped, zap.Error(applyErr))
		return applyErr
	}

	fetchContext, stopFetch := instance.fetchContext(ctx)
	data, fetchErr := instance.fetcher.FetchReviewsWithPagination(fetchContext, instance.config.WidgetID, 0, widget.InitialBatchSize(requestedLayout))
	stopFetch()
	if !instance.current(generation) {
		return ErrInstanceDisposed
	}
	if fetchErr != nil {
		instance.logger.Debug(logEventLoadFailed,
			zap.String(logFieldErrorKind, fetcher.ErrorKind(fetchErr)),
			zap.Error(fetchErr),
		)
		if applyErr := instance.apply(render.ErrorPanel(requestedLayout, instance.config.ThemeColor, failureMessage(fetchErr), true)); applyErr != nil {
			return errors.Join(fetchErr, applyErr)
		}
		instance.listen(instance.container, dom.EventClick, instance.handleErrorPanelClick)
		return fetchErr
	}

	layout := instance.config.EffectiveLayout(data.Settings)
	renderable, renderErr := render.Dispatch(layout, data, instance.config, render.Options{
		Now:          instance.runtime.now(),
		VisibleCount: carousel.VisibleCountForWidth(instance.runtime.document.ViewportWidth()),
	})
	if renderErr != nil {
		instance.logger.Debug(logEventRenderFailed, zap.Error(renderErr))
		if applyErr := instance.apply(render.ErrorPanel(layout, instance.config.EffectiveThemeColor(data.Settings), messageFetchFailed, true)); applyErr != nil {
			return errors.Join(renderErr, applyErr)
		}
		instance.listen(instance.container, dom.EventClick, instance.handleErrorPanelClick)
		return renderErr
	}
	if applyErr := instance.apply(renderable.HTML); applyErr != nil {
		instance.logger.Debug(logEventLoadSkipped, zap.Error(applyErr))
		return applyErr
	}

	instance.mutex.Lock()
	instance.layout = layout
	instance.data = data
	instance.reviews = renderable.Reviews
	instance.loadedCount = len(data.Reviews)
	instance.mutex.Unlock()

	instance.logger.Debug(logEventLoaded,
		zap.String(logFieldLayout, layout.String()),
		zap.Int(logFieldReviewCount, renderable.CardCount),
	)
	if renderable.Empty {
		return nil
	}
	instance.attachBehaviors(layout)
	return nil
}

// Dispose stops autoplay, removes every listener the instance registered and
// closes its modal. Later loads and callbacks become no-ops.
func (instance *Instance) Dispose() {
	instance.mutex.Lock()
	if instance.disposed {
		instance.mutex.Unlock()
		return
	}
	instance.disposed = true
	instance.mutex.Unlock()

	instance.cancel()
	instance.teardownBehaviors()
	instance.runtime.forget(instance)
	instance.logger.Debug(logEventDisposed)
}

// current reports whether a load started as generation may still touch the DOM.
func (instance *Instance) current(generation int) bool {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return !instance.disposed && instance.loadGeneration == generation
}

// apply replaces the container content unless the instance was disposed or
// the container left the document.
func (instance *Instance) apply(markup template.HTML) error {
	if instance.Disposed() {
		return ErrInstanceDisposed
	}
	document := instance.runtime.document
	if !document.IsAttached(instance.container) {
		return ErrContainerDetached
	}
	return document.SetInnerHTML(instance.container, string(markup))
}

func (instance *Instance) canApply() bool {
	return !instance.Disposed() && instance.runtime.document.IsAttached(instance.container)
}

func (instance *Instance) listen(node *html.Node, eventType string, handler dom.Handler) {
	listener := instance.runtime.document.Listen(node, eventType, handler)
	instance.mutex.Lock()
	instance.listeners = append(instance.listeners, listener)
	instance.mutex.Unlock()
}

func (instance *Instance) listenWindow(eventType string, handler dom.Handler) {
	listener := instance.runtime.document.ListenWindow(eventType, handler)
	instance.mutex.Lock()
	instance.listeners = append(instance.listeners, listener)
	instance.mutex.Unlock()
}

// teardownBehaviors stops autoplay and removes listeners and the modal. It must
// not run on the autoplay goroutine.
func (instance *Instance) teardownBehaviors() {
	instance.mutex.Lock()
	autoplay := instance.autoplay
	listeners := instance.listeners
	instance.autoplay = nil
	instance.engine = nil
	instance.listeners = nil
	instance.mutex.Unlock()

	autoplay.Stop()
	for _, listener := range listeners {
		listener.Remove()
	}
	instance.closeModal()
}

func (instance *Instance) handleErrorPanelClick(event *dom.Event) {
	if actionOf(instance.runtime.document, event.Target) != render.ActionRetry {
		return
	}
	event.PreventDefault()
	_ = instance.Load(instance.lifetime)
}

func failureMessage(fetchErr error) string {
	if fetcher.ErrorKind(fetchErr) == fetcher.ErrorKindTimeout {
		return messageFetchTimedOut
	}
	return messageFetchFailed
}

// actionOf returns the data-action of the closest actionable ancestor of target.
func actionOf(document *dom.Document, target *html.Node) string {
	actionNode := document.Closest(target, selectorActionTarget)
	if actionNode == nil {
		return ""
	}
	action, _ := document.Attribute(actionNode, render.AttributeAction)
	return action
}

func actionNodeOf(document *dom.Document, target *html.Node) *html.Node {
	return document.Closest(target, selectorActionTarget)
}

func indexAttribute(document *dom.Document, node *html.Node, name string) (int, bool) {
	rawValue, found := document.Attribute(node, name)
	if !found {
		return 0, false
	}
	index, parseErr := strconv.Atoi(rawValue)
	if parseErr != nil {
		return 0, false
	}
	return index, true
}
