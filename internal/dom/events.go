package dom

import "golang.org/x/net/html"

const (
	EventClick        = "click"
	EventKeyDown      = "keydown"
	EventResize       = "resize"
	EventPointerEnter = "mouseenter"
	EventPointerLeave = "mouseleave"
	EventPointerDown  = "mousedown"
	EventPointerMove  = "mousemove"
	EventPointerUp    = "mouseup"
	EventTouchStart   = "touchstart"
	EventTouchMove    = "touchmove"
	EventTouchEnd     = "touchend"
)

// Event is dispatched to listeners. Target is nil for window-level events.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	ClientX       float64
	Key           string

	propagationStopped bool
	defaultPrevented   bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (event *Event) StopPropagation() {
	event.propagationStopped = true
}

// PreventDefault marks the event as handled.
func (event *Event) PreventDefault() {
	event.defaultPrevented = true
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (event *Event) DefaultPrevented() bool {
	return event.defaultPrevented
}

// Handler receives dispatched events.
type Handler func(*Event)

// Listener is a registered handler; Remove detaches it.
type Listener struct {
	document  *Document
	node      *html.Node
	eventType string
	handler   Handler
	id        uint64
}

// Listen registers handler for events of eventType reaching node, including
// events bubbling up from descendants.
func (document *Document) Listen(node *html.Node, eventType string, handler Handler) *Listener {
	if node == nil || handler == nil {
		return nil
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	document.nextListenerID++
	listener := &Listener{document: document, node: node, eventType: eventType, handler: handler, id: document.nextListenerID}
	byType, found := document.nodeListeners[node]
	if !found {
		byType = make(map[string][]*Listener)
		document.nodeListeners[node] = byType
	}
	byType[eventType] = append(byType[eventType], listener)
	return listener
}

// ListenWindow registers a window-level handler (resize, keydown, pointer release).
func (document *Document) ListenWindow(eventType string, handler Handler) *Listener {
	if handler == nil {
		return nil
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	document.nextListenerID++
	listener := &Listener{document: document, eventType: eventType, handler: handler, id: document.nextListenerID}
	document.windowListeners[eventType] = append(document.windowListeners[eventType], listener)
	return listener
}

// Remove detaches the listener. It is safe to call more than once and on nil.
func (listener *Listener) Remove() {
	if listener == nil || listener.document == nil {
		return
	}
	document := listener.document
	document.mutex.Lock()
	defer document.mutex.Unlock()
	if listener.node == nil {
		document.windowListeners[listener.eventType] = withoutListener(document.windowListeners[listener.eventType], listener.id)
		return
	}
	byType, found := document.nodeListeners[listener.node]
	if !found {
		return
	}
	byType[listener.eventType] = withoutListener(byType[listener.eventType], listener.id)
	if len(byType[listener.eventType]) == 0 {
		delete(byType, listener.eventType)
	}
	if len(byType) == 0 {
		delete(document.nodeListeners, listener.node)
	}
}

// ListenerCount returns the number of registered listeners.
func (document *Document) ListenerCount() int {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	total := 0
	for _, byType := range document.nodeListeners {
		for _, listeners := range byType {
			total += len(listeners)
		}
	}
	for _, listeners := range document.windowListeners {
		total += len(listeners)
	}
	return total
}

// Dispatch delivers the event to listeners on target and its ancestors, then to
// window listeners, unless a handler stops propagation.
func (document *Document) Dispatch(target *html.Node, event *Event) {
	if event == nil {
		return
	}
	event.Target = target
	for current := target; current != nil; current = current.Parent {
		handlers := document.snapshotHandlers(current, event.Type)
		for _, handler := range handlers {
			event.CurrentTarget = current
			handler(event)
		}
		if event.propagationStopped {
			return
		}
	}
	event.CurrentTarget = nil
	for _, handler := range document.snapshotWindowHandlers(event.Type) {
		handler(event)
		if event.propagationStopped {
			return
		}
	}
}

func (document *Document) snapshotHandlers(node *html.Node, eventType string) []Handler {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	byType, found := document.nodeListeners[node]
	if !found {
		return nil
	}
	return handlersOf(byType[eventType])
}

func (document *Document) snapshotWindowHandlers(eventType string) []Handler {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return handlersOf(document.windowListeners[eventType])
}

func handlersOf(listeners []*Listener) []Handler {
	if len(listeners) == 0 {
		return nil
	}
	handlers := make([]Handler, 0, len(listeners))
	for _, listener := range listeners {
		handlers = append(handlers, listener.handler)
	}
	return handlers
}

func withoutListener(listeners []*Listener, identifier uint64) []*Listener {
	kept := make([]*Listener, 0, len(listeners))
	for _, listener := range listeners {
		if listener.id != identifier {
			kept = append(kept, listener)
		}
	}
	return kept
}
