// Package runtime boots review widgets on a host document. It scans embedding
// scripts, resolves the API origin, and owns one Instance per container.
package runtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/carousel"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/dom"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/fetcher"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/styles"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	errorMessageContainerNotFound = "runtime: widget container not found"
	errorMessageInstanceDisposed  = "runtime: widget instance disposed"
	errorMessageContainerDetached = "runtime: widget container detached"
	errorMessageMissingDocument   = "runtime: missing document"

	logEventConfigRejected = "widget_config_rejected"
	logEventInitialized    = "widget_initialized"
	logEventReplaced       = "widget_instance_replaced"
	logEventStylesFailed   = "widget_styles_failed"
	logFieldContainerID    = "container_id"
	logFieldInstanceID     = "instance_id"
	logFieldAPIOrigin      = "api_origin"
	logFieldScriptSource   = "script_src"
	logFieldLayout         = "layout"

	attributeScriptSource = "src"
)

var (
	ErrContainerNotFound = errors.New(errorMessageContainerNotFound)
	ErrInstanceDisposed  = errors.New(errorMessageInstanceDisposed)
	ErrContainerDetached = errors.New(errorMessageContainerDetached)
	ErrMissingDocument   = errors.New(errorMessageMissingDocument)
)

// Fetcher loads one page of widget data.
type Fetcher interface {
	FetchReviewsWithPagination(ctx context.Context, widgetID string, offset int, limit int) (widget.Data, error)
}

// FetcherFactory builds a Fetcher for an API origin.
type FetcherFactory func(origin string) Fetcher

// Option customizes a Runtime.
type Option func(*Runtime)

func WithLogger(logger *zap.Logger) Option {
	return func(runtime *Runtime) {
		if logger != nil {
			runtime.logger = logger
		}
	}
}

func WithFetcherFactory(factory FetcherFactory) Option {
	return func(runtime *Runtime) {
		if factory != nil {
			runtime.newFetcher = factory
		}
	}
}

func WithClock(clock carousel.Clock) Option {
	return func(runtime *Runtime) {
		if clock != nil {
			runtime.now = clock
		}
	}
}

func WithMeasurer(measurer dom.Measurer) Option {
	return func(runtime *Runtime) {
		if measurer != nil {
			runtime.measurer = measurer
		}
	}
}

// WithAPIOriginOverride plays the role of the page-level origin override.
func WithAPIOriginOverride(origin string) Option {
	return func(runtime *Runtime) {
		runtime.apiOriginOverride = normalizeBaseURL(origin)
	}
}

func WithProductionOrigin(origin string) Option {
	return func(runtime *Runtime) {
		if normalized := normalizeBaseURL(origin); normalized != "" {
			runtime.productionOrigin = normalized
		}
	}
}

func WithAutoplayInterval(interval time.Duration) Option {
	return func(runtime *Runtime) {
		if interval > 0 {
			runtime.autoplayInterval = interval
		}
	}
}

// Runtime is the per-document namespace for widget instances.
type Runtime struct {
	document          *dom.Document
	logger            *zap.Logger
	newFetcher        FetcherFactory
	now               carousel.Clock
	measurer          dom.Measurer
	apiOriginOverride string
	productionOrigin  string
	autoplayInterval  time.Duration

	stylesMutex    sync.Mutex
	instancesMutex sync.Mutex
	instances      map[string]*Instance
}

func New(document *dom.Document, options ...Option) *Runtime {
	runtime := &Runtime{
		document:         document,
		logger:           zap.NewNop(),
		now:              time.Now,
		measurer:         dom.NewTextMeasurer(),
		productionOrigin: DefaultProductionOrigin,
		autoplayInterval: carousel.AutoplayInterval,
		instances:        make(map[string]*Instance),
	}
	for _, option := range options {
		option(runtime)
	}
	if runtime.newFetcher == nil {
		logger := runtime.logger
		runtime.newFetcher = func(origin string) Fetcher {
			return fetcher.NewClient(origin, fetcher.WithLogger(logger))
		}
	}
	return runtime
}

func (runtime *Runtime) Document() *dom.Document {
	return runtime.document
}

// Boot initializes one instance per embedding script and waits for their first
// load. Configuration errors are logged and skipped; no error leaves Boot.
func (runtime *Runtime) Boot(ctx context.Context) []*Instance {
	if runtime.document == nil {
		return nil
	}
	configs := make([]widget.Config, 0)
	for _, script := range runtime.document.Scripts() {
		attributes := nodeAttributes{document: runtime.document, node: script}
		if !attributes.hasWidgetIdentifier() {
			continue
		}
		config, configErr := widget.ConfigFromAttributes(attributes)
		if configErr != nil {
			runtime.logger.Debug(logEventConfigRejected, zap.Error(configErr))
			continue
		}
		scriptSource, _ := runtime.document.Attribute(script, attributeScriptSource)
		config.APIOrigin = runtime.resolveOrigin(scriptSource)
		runtime.logger.Debug(logEventInitialized,
			zap.String(logFieldContainerID, config.ContainerID),
			zap.String(logFieldScriptSource, scriptSource),
			zap.String(logFieldAPIOrigin, config.APIOrigin),
		)
		configs = append(configs, config)
	}

	instances := make([]*Instance, len(configs))
	var waitGroup sync.WaitGroup
	for index, config := range configs {
		waitGroup.Add(1)
		go func(index int, config widget.Config) {
			defer waitGroup.Done()
			instance, initErr := runtime.Init(ctx, config)
			if initErr != nil {
				return
			}
			instances[index] = instance
		}(index, config)
	}
	waitGroup.Wait()

	started := make([]*Instance, 0, len(instances))
	for _, instance := range instances {
		if instance != nil {
			started = append(started, instance)
		}
	}
	return started
}

// Init starts a widget for config and runs its first load. Configuration
// errors leave the page untouched. Load failures are rendered into the
// container and do not surface here. Re-initializing a container disposes the
// instance that owned it.
func (runtime *Runtime) Init(ctx context.Context, config widget.Config) (*Instance, error) {
	if runtime.document == nil {
		return nil, ErrMissingDocument
	}
	if validationErr := config.Validate(); validationErr != nil {
		runtime.logger.Debug(logEventConfigRejected, zap.Error(validationErr))
		return nil, validationErr
	}
	config.WidgetID = strings.TrimSpace(config.WidgetID)
	if strings.TrimSpace(config.ContainerID) == "" {
		config.ContainerID = widget.DefaultContainerID
		if config.Layout == widget.LayoutCarousel {
			config.ContainerID = widget.DefaultCarouselContainerID
		}
	}
	container := runtime.document.ElementByID(config.ContainerID)
	if container == nil {
		runtime.logger.Debug(logEventConfigRejected,
			zap.String(logFieldContainerID, config.ContainerID),
			zap.Error(ErrContainerNotFound),
		)
		return nil, ErrContainerNotFound
	}
	if normalizeBaseURL(config.APIOrigin) == "" {
		config.APIOrigin = runtime.resolveOrigin("")
	}
	config.APIOrigin = normalizeBaseURL(config.APIOrigin)

	instance := newInstance(ctx, runtime, config, container)

	runtime.instancesMutex.Lock()
	previous := runtime.instances[config.ContainerID]
	runtime.instances[config.ContainerID] = instance
	runtime.instancesMutex.Unlock()
	if previous != nil {
		runtime.logger.Debug(logEventReplaced,
			zap.String(logFieldContainerID, config.ContainerID),
			zap.String(logFieldInstanceID, previous.ID()),
		)
		previous.Dispose()
	}

	_ = instance.Load(ctx)
	return instance, nil
}

// InitWidgetID starts a widget with default container and layout.
func (runtime *Runtime) InitWidgetID(ctx context.Context, widgetID string) (*Instance, error) {
	return runtime.Init(ctx, widget.Config{WidgetID: widgetID})
}

// Instance returns the live instance owning containerID.
func (runtime *Runtime) Instance(containerID string) *Instance {
	runtime.instancesMutex.Lock()
	defer runtime.instancesMutex.Unlock()
	return runtime.instances[containerID]
}

// Instances returns every live instance.
func (runtime *Runtime) Instances() []*Instance {
	runtime.instancesMutex.Lock()
	defer runtime.instancesMutex.Unlock()
	instances := make([]*Instance, 0, len(runtime.instances))
	for _, instance := range runtime.instances {
		instances = append(instances, instance)
	}
	return instances
}

// Dispose tears down the instance owning containerID and reports whether one existed.
func (runtime *Runtime) Dispose(containerID string) bool {
	runtime.instancesMutex.Lock()
	instance := runtime.instances[containerID]
	delete(runtime.instances, containerID)
	runtime.instancesMutex.Unlock()
	if instance == nil {
		return false
	}
	instance.Dispose()
	return true
}

// Close disposes every instance.
func (runtime *Runtime) Close() {
	runtime.instancesMutex.Lock()
	instances := runtime.instances
	runtime.instances = make(map[string]*Instance)
	runtime.instancesMutex.Unlock()
	for _, instance := range instances {
		instance.Dispose()
	}
}

func (runtime *Runtime) resolveOrigin(scriptSource string) string {
	return ResolveAPIOrigin(
		scriptSource,
		runtime.apiOriginOverride,
		runtime.document.Origin(),
		runtime.document.Hostname(),
		runtime.productionOrigin,
	)
}

// injectStyles serializes stylesheet injection across instances booting in parallel.
func (runtime *Runtime) injectStyles() {
	runtime.stylesMutex.Lock()
	defer runtime.stylesMutex.Unlock()
	if _, injectErr := styles.Inject(runtime.document); injectErr != nil {
		runtime.logger.Debug(logEventStylesFailed, zap.Error(injectErr))
	}
}

func (runtime *Runtime) forget(instance *Instance) {
	runtime.instancesMutex.Lock()
	defer runtime.instancesMutex.Unlock()
	if runtime.instances[instance.config.ContainerID] == instance {
		delete(runtime.instances, instance.config.ContainerID)
	}
}

type nodeAttributes struct {
	document *dom.Document
	node     *html.Node
}

func (attributes nodeAttributes) Attribute(name string) (string, bool) {
	return attributes.document.Attribute(attributes.node, name)
}

func (attributes nodeAttributes) hasWidgetIdentifier() bool {
	if _, found := attributes.Attribute(widget.AttributeWidgetID); found {
		return true
	}
	_, found := attributes.Attribute(widget.AttributeCarouselWidgetID)
	return found
}
