package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/carousel"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/dom"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/render"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	styleTransform = "transform"
	styleFlex      = "flex"
	styleCursor    = "cursor"

	logFieldOffset = "offset"
)

func (instance *Instance) attachBehaviors(layout widget.Layout) {
	instance.listen(instance.container, dom.EventClick, instance.handleClick)
	if layout == widget.LayoutCarousel {
		instance.attachCarousel()
	}
}

// handleClick is the delegated click handler for every control inside the container.
func (instance *Instance) handleClick(event *dom.Event) {
	if !instance.canApply() {
		return
	}
	document := instance.runtime.document
	actionNode := actionNodeOf(document, event.Target)
	if actionNode == nil {
		return
	}
	action, _ := document.Attribute(actionNode, render.AttributeAction)
	switch action {
	case render.ActionReadMore:
		if index, found := indexAttribute(document, actionNode, render.AttributeReviewIndex); found {
			instance.openModal(index)
		}
	case render.ActionTogglePanel:
		instance.setPanelOpen(!instance.panelOpen())
	case render.ActionClosePanel:
		instance.setPanelOpen(false)
	case render.ActionLoadMore:
		instance.loadMore(instance.lifetime)
	case render.ActionCarouselPrev:
		instance.navigateCarousel(func(engine *carousel.Engine) { engine.Prev() })
	case render.ActionCarouselNext:
		instance.navigateCarousel(func(engine *carousel.Engine) { engine.Next() })
	case render.ActionCarouselDot:
		if index, found := indexAttribute(document, actionNode, render.AttributeDotIndex); found {
			instance.navigateCarousel(func(engine *carousel.Engine) { engine.GoTo(index) })
		}
	case render.ActionCarouselRestart:
		instance.navigateCarousel(func(engine *carousel.Engine) { engine.Restart() })
	default:
		return
	}
	event.PreventDefault()
}

// openModal shows the full text of the review at index. Only one modal is open
// per instance.
func (instance *Instance) openModal(index int) {
	instance.mutex.Lock()
	if index < 0 || index >= len(instance.reviews) {
		instance.mutex.Unlock()
		return
	}
	review := instance.reviews[index]
	settings := instance.data.Settings
	instance.mutex.Unlock()

	instance.closeModal()
	document := instance.runtime.document
	body := document.Body()
	if body == nil {
		return
	}
	nodes, appendErr := document.AppendHTML(body, string(render.Modal(review, settings, instance.runtime.now())))
	if appendErr != nil {
		instance.logger.Debug(logEventRenderFailed, zap.Error(appendErr))
		return
	}
	overlay := firstElement(nodes)
	if overlay == nil {
		return
	}
	overlayListener := document.Listen(overlay, dom.EventClick, func(event *dom.Event) {
		if event.Target == overlay || actionOf(document, event.Target) == render.ActionCloseModal {
			event.PreventDefault()
			instance.closeModal()
		}
	})
	escapeListener := document.ListenWindow(dom.EventKeyDown, func(event *dom.Event) {
		if event.Key == keyEscape {
			instance.closeModal()
		}
	})

	instance.mutex.Lock()
	instance.modal = overlay
	instance.modalListeners = []*dom.Listener{overlayListener, escapeListener}
	instance.mutex.Unlock()
}

func (instance *Instance) closeModal() {
	instance.mutex.Lock()
	modal := instance.modal
	listeners := instance.modalListeners
	instance.modal = nil
	instance.modalListeners = nil
	instance.mutex.Unlock()

	for _, listener := range listeners {
		listener.Remove()
	}
	if modal != nil {
		instance.runtime.document.Remove(modal)
	}
}

// ModalOpen reports whether the review modal is showing.
func (instance *Instance) ModalOpen() bool {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.modal != nil
}

func (instance *Instance) panelOpen() bool {
	document := instance.runtime.document
	return document.HasClass(document.FirstWithin(instance.container, render.SelectorSidePanel), render.ClassOpen)
}

func (instance *Instance) setPanelOpen(open bool) {
	document := instance.runtime.document
	panel := document.FirstWithin(instance.container, render.SelectorSidePanel)
	if panel == nil {
		return
	}
	document.ToggleClass(panel, render.ClassOpen, open)
	document.SetAttribute(panel, attributeAriaHidden, fmt.Sprintf("%t", !open))
}

// loadMore appends the next badge batch. A second request while one is in
// flight is ignored; the button is disabled and relabelled meanwhile.
func (instance *Instance) loadMore(ctx context.Context) {
	instance.mutex.Lock()
	if instance.loadingMore || instance.disposed {
		instance.mutex.Unlock()
		return
	}
	instance.loadingMore = true
	offset := instance.loadedCount
	generation := instance.loadGeneration
	instance.mutex.Unlock()

	document := instance.runtime.document
	button := document.FirstWithin(instance.container, render.SelectorLoadMore)
	document.SetAttribute(button, attributeDisabled, "")
	document.SetText(button, render.LoadMoreLoadingLabel)

	limit := widget.InitialBatchSize(widget.LayoutBadge)
	fetchContext, stopFetch := instance.fetchContext(ctx)
	data, fetchErr := instance.fetcher.FetchReviewsWithPagination(fetchContext, instance.config.WidgetID, offset, limit)
	stopFetch()

	defer func() {
		instance.mutex.Lock()
		instance.loadingMore = false
		instance.mutex.Unlock()
	}()
	if !instance.current(generation) || !instance.canApply() {
		return
	}
	document.RemoveAttribute(button, attributeDisabled)
	document.SetText(button, render.LoadMoreLabel)
	if fetchErr != nil {
		instance.logger.Debug(logEventLoadMoreFailed, zap.Int(logFieldOffset, offset), zap.Error(fetchErr))
		return
	}

	instance.mutex.Lock()
	settings := instance.data.Settings
	startIndex := len(instance.reviews)
	batch := widget.FilterByMinRating(data.Reviews, settings.MinRating)
	instance.reviews = append(instance.reviews, batch...)
	instance.loadedCount += len(data.Reviews)
	loadedCount := instance.loadedCount
	total := instance.data.TotalCount()
	if data.TotalReviewCount != nil {
		total = *data.TotalReviewCount
	}
	instance.mutex.Unlock()

	if len(batch) > 0 {
		markup, renderErr := render.BadgeCards(batch, settings, startIndex, render.Options{Now: instance.runtime.now()})
		if renderErr != nil {
			instance.logger.Debug(logEventRenderFailed, zap.Error(renderErr))
			return
		}
		if _, appendErr := document.AppendHTML(document.FirstWithin(instance.container, render.SelectorPanelList), string(markup)); appendErr != nil {
			instance.logger.Debug(logEventRenderFailed, zap.Error(appendErr))
			return
		}
	}
	document.ToggleClass(button, render.ClassHidden, len(data.Reviews) == 0 || loadedCount >= total)
}

func (instance *Instance) attachCarousel() {
	document := instance.runtime.document
	carouselNode := document.FirstWithin(instance.container, render.SelectorCarousel)
	if carouselNode == nil {
		return
	}

	instance.mutex.Lock()
	engine := carousel.NewEngine(len(instance.reviews), document.ViewportWidth(), instance.runtime.now)
	autoplay := carousel.NewAutoplay(instance.runtime.autoplayInterval, instance.autoplayTick)
	instance.engine = engine
	instance.autoplay = autoplay
	instance.mutex.Unlock()

	viewport := document.FirstWithin(carouselNode, render.SelectorCarouselView)
	instance.listen(carouselNode, dom.EventPointerEnter, func(*dom.Event) {
		engine.PointerEnter()
		instance.drawCarousel(0)
	})
	instance.listen(carouselNode, dom.EventPointerLeave, func(event *dom.Event) {
		if engine.State() == carousel.StateDragging {
			engine.DragEnd(event.ClientX)
		}
		engine.PointerLeave()
		instance.drawCarousel(0)
	})
	for _, startEvent := range []string{dom.EventPointerDown, dom.EventTouchStart} {
		instance.listen(viewport, startEvent, func(event *dom.Event) {
			engine.DragStart(event.ClientX)
			instance.drawCarousel(0)
		})
	}
	for _, moveEvent := range []string{dom.EventPointerMove, dom.EventTouchMove} {
		instance.listen(viewport, moveEvent, func(event *dom.Event) {
			if engine.State() != carousel.StateDragging {
				return
			}
			instance.drawCarousel(engine.DragMove(event.ClientX))
		})
	}
	for _, endEvent := range []string{dom.EventPointerUp, dom.EventTouchEnd} {
		instance.listen(viewport, endEvent, func(event *dom.Event) {
			engine.DragEnd(event.ClientX)
			instance.drawCarousel(0)
		})
	}
	instance.listenWindow(dom.EventResize, func(*dom.Event) {
		instance.resizeCarousel()
	})

	instance.normalizeCarouselHeights()
	instance.drawCarousel(0)
	if engine.AutoplayEnabled() {
		autoplay.Start(instance.lifetime)
	}
}

func (instance *Instance) navigateCarousel(navigate func(*carousel.Engine)) {
	engine := instance.Carousel()
	if engine == nil {
		return
	}
	navigate(engine)
	instance.drawCarousel(0)
}

// autoplayTick runs on the autoplay goroutine and only redraws.
func (instance *Instance) autoplayTick(ctx context.Context) {
	if ctx.Err() != nil || !instance.canApply() {
		return
	}
	engine := instance.Carousel()
	if engine == nil {
		return
	}
	if engine.Tick() {
		instance.drawCarousel(0)
	}
}

// resizeCarousel recomputes the layout. The autoplay loop is only replaced
// when the visible count changed; otherwise the running interval is kept.
func (instance *Instance) resizeCarousel() {
	if !instance.canApply() {
		return
	}
	instance.mutex.Lock()
	engine := instance.engine
	autoplay := instance.autoplay
	instance.mutex.Unlock()
	if engine == nil {
		return
	}
	visibleCountChanged := engine.Resize(instance.runtime.document.ViewportWidth())
	instance.normalizeCarouselHeights()
	instance.drawCarousel(0)

	switch {
	case !engine.AutoplayEnabled() || instance.Disposed():
		autoplay.Stop()
	case !autoplay.Running():
		autoplay.Start(instance.lifetime)
	case visibleCountChanged:
		autoplay.Restart(instance.lifetime)
	}
}

func (instance *Instance) normalizeCarouselHeights() {
	document := instance.runtime.document
	cards := document.FindWithin(instance.container, render.SelectorCarouselSlide+" "+render.SelectorCard)
	carousel.NormalizeHeights(document, cards, instance.runtime.measurer)
}

// drawCarousel projects the engine snapshot onto the carousel subtree.
// dragOffset shifts the track by the live drag displacement in pixels.
func (instance *Instance) drawCarousel(dragOffset float64) {
	if !instance.canApply() {
		return
	}
	engine := instance.Carousel()
	if engine == nil {
		return
	}
	snapshot := engine.Snapshot()
	document := instance.runtime.document
	carouselNode := document.FirstWithin(instance.container, render.SelectorCarousel)
	if carouselNode == nil {
		return
	}

	document.ToggleClass(carouselNode, render.ClassDragging, snapshot.State == carousel.StateDragging)
	if track := document.FirstWithin(carouselNode, render.SelectorCarouselTrack); track != nil {
		transform := fmt.Sprintf("translateX(%g%%)", snapshot.TranslatePercent)
		if dragOffset != 0 {
			transform = fmt.Sprintf("translateX(calc(%g%% + %gpx))", snapshot.TranslatePercent, dragOffset)
		}
		document.SetStyle(track, styleTransform, transform)
	}
	slideBasis := fmt.Sprintf("0 0 %g%%", 100/float64(snapshot.VisibleCount))
	for _, slide := range document.FindWithin(carouselNode, render.SelectorCarouselSlide) {
		document.SetStyle(slide, styleFlex, slideBasis)
	}
	for _, arrow := range document.FindWithin(carouselNode, render.SelectorCarouselArrow) {
		document.ToggleClass(arrow, render.ClassHidden, !snapshot.ShowControls)
	}
	if dots := document.FirstWithin(carouselNode, render.SelectorCarouselDots); dots != nil {
		document.ToggleClass(dots, render.ClassHidden, !snapshot.ShowControls)
		instance.drawDots(dots, snapshot)
	}
	if restart := document.FirstWithin(carouselNode, render.SelectorCarouselRestart); restart != nil {
		document.ToggleClass(restart, render.ClassVisible, snapshot.ShowRestart)
	}
	if viewport := document.FirstWithin(carouselNode, render.SelectorCarouselView); viewport != nil {
		cursor := "grab"
		if snapshot.State == carousel.StateDragging {
			cursor = "grabbing"
		}
		document.SetStyle(viewport, styleCursor, cursor)
	}
}

func (instance *Instance) drawDots(dots *html.Node, snapshot carousel.Snapshot) {
	document := instance.runtime.document
	existing := document.FindWithin(dots, "[data-action=\""+render.ActionCarouselDot+"\"]")
	if len(existing) != snapshot.DotCount {
		if setErr := document.SetInnerHTML(dots, string(render.CarouselDots(snapshot.DotCount, snapshot.CurrentIndex))); setErr != nil {
			instance.logger.Debug(logEventRenderFailed, zap.Error(setErr))
		}
		return
	}
	for index, dot := range existing {
		document.ToggleClass(dot, render.ClassActive, index == snapshot.CurrentIndex)
	}
}

func firstElement(nodes []*html.Node) *html.Node {
	for _, node := range nodes {
		if node.Type == html.ElementNode {
			return node
		}
	}
	return nil
}
