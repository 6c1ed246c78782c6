// Package carousel holds the slide state machine behind the carousel layout:
// index bookkeeping, autoplay ticks, manual and hover pauses, drag gestures and
// responsive recomputation. It has no DOM knowledge; callers project a
// Snapshot onto the document after each transition.
package carousel

import (
	"sync"
	"time"
)

const (
	// ManualCooldown pauses autoplay after arrow, dot and drag navigation.
	ManualCooldown = 2 * time.Second
	// RestartCooldown pauses autoplay after the restart control.
	RestartCooldown = time.Second
	// DragThreshold is the horizontal displacement in pixels that turns a drag into navigation.
	DragThreshold = 50.0
	// AutoplayInterval is the delay between automatic advances.
	AutoplayInterval = 4 * time.Second

	restartViewportWidth = breakpointSmall
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StatePaused
)

func (state State) String() string {
	switch state {
	case StateDragging:
		return "dragging"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Clock returns the current time.
type Clock func() time.Time

// Snapshot is the view of an Engine after a transition.
type Snapshot struct {
	CurrentIndex     int
	MaxIndex         int
	VisibleCount     int
	State            State
	ShowControls     bool
	DotCount         int
	ShowRestart      bool
	TranslatePercent float64
}

// Engine is safe for concurrent use; autoplay ticks arrive on their own goroutine.
type Engine struct {
	mutex         sync.Mutex
	now           Clock
	reviewCount   int
	visibleCount  int
	viewportWidth float64
	currentIndex  int
	state         State
	hovering      bool
	pausedUntil   time.Time
	dragStartX    float64
	dragCurrentX  float64
}

func NewEngine(reviewCount int, viewportWidth float64, now Clock) *Engine {
	if now == nil {
		now = time.Now
	}
	if reviewCount < 0 {
		reviewCount = 0
	}
	return &Engine{
		now:           now,
		reviewCount:   reviewCount,
		visibleCount:  VisibleCountForWidth(viewportWidth),
		viewportWidth: viewportWidth,
		state:         StateIdle,
	}
}

func (engine *Engine) maxIndexLocked() int {
	return max(0, engine.reviewCount-engine.visibleCount)
}

func (engine *Engine) MaxIndex() int {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return engine.maxIndexLocked()
}

func (engine *Engine) CurrentIndex() int {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return engine.currentIndex
}

func (engine *Engine) State() State {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return engine.state
}

// AutoplayEnabled reports false when fewer reviews exist than fit on screen.
func (engine *Engine) AutoplayEnabled() bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return engine.autoplayEnabledLocked()
}

func (engine *Engine) autoplayEnabledLocked() bool {
	return engine.reviewCount > 0 && engine.reviewCount >= engine.visibleCount
}

// Next advances one slide, wrapping from the last position to the first.
func (engine *Engine) Next() int {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.stepLocked(1)
	engine.pauseLocked(ManualCooldown)
	return engine.currentIndex
}

// Prev retreats one slide, wrapping from the first position to the last.
func (engine *Engine) Prev() int {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.stepLocked(-1)
	engine.pauseLocked(ManualCooldown)
	return engine.currentIndex
}

// GoTo jumps to a dot position, clamped into range.
func (engine *Engine) GoTo(index int) int {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.currentIndex = engine.clampLocked(index)
	engine.pauseLocked(ManualCooldown)
	return engine.currentIndex
}

// Restart returns to the first slide.
func (engine *Engine) Restart() {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.currentIndex = 0
	engine.pauseLocked(RestartCooldown)
}

func (engine *Engine) PointerEnter() {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.hovering = true
	if engine.state != StateDragging {
		engine.state = StatePaused
	}
}

func (engine *Engine) PointerLeave() {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.hovering = false
	if engine.state != StateDragging {
		engine.state = StateIdle
		engine.pausedUntil = time.Time{}
	}
}

func (engine *Engine) DragStart(pointerX float64) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.state = StateDragging
	engine.dragStartX = pointerX
	engine.dragCurrentX = pointerX
}

// DragMove records the pointer and returns the displacement from the anchor.
func (engine *Engine) DragMove(pointerX float64) float64 {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	if engine.state != StateDragging {
		return 0
	}
	engine.dragCurrentX = pointerX
	return engine.dragCurrentX - engine.dragStartX
}

// DragEnd finishes a gesture and reports whether it navigated. A leftward drag
// past DragThreshold advances, a rightward one retreats.
func (engine *Engine) DragEnd(pointerX float64) bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	if engine.state != StateDragging {
		return false
	}
	displacement := pointerX - engine.dragStartX
	engine.dragStartX = 0
	engine.dragCurrentX = 0
	switch {
	case displacement <= -DragThreshold:
		engine.stepLocked(1)
	case displacement >= DragThreshold:
		engine.stepLocked(-1)
	default:
		if engine.hovering {
			engine.state = StatePaused
		} else {
			engine.state = StateIdle
		}
		return false
	}
	engine.pauseLocked(ManualCooldown)
	return true
}

// Tick is the autoplay step. An expired cooldown resolves to idle first; an
// idle engine then advances exactly one slide.
func (engine *Engine) Tick() bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	if engine.state == StatePaused && !engine.hovering && !engine.pausedUntil.IsZero() && !engine.now().Before(engine.pausedUntil) {
		engine.state = StateIdle
		engine.pausedUntil = time.Time{}
	}
	if engine.state != StateIdle || !engine.autoplayEnabledLocked() || engine.maxIndexLocked() == 0 {
		return false
	}
	engine.stepLocked(1)
	return true
}

// Resize recomputes the visible count and re-clamps the index. It reports
// whether the visible count changed.
func (engine *Engine) Resize(viewportWidth float64) bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.viewportWidth = viewportWidth
	visibleCount := VisibleCountForWidth(viewportWidth)
	changed := visibleCount != engine.visibleCount
	engine.visibleCount = visibleCount
	engine.currentIndex = engine.clampLocked(engine.currentIndex)
	return changed
}

func (engine *Engine) Snapshot() Snapshot {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	maxIndex := engine.maxIndexLocked()
	return Snapshot{
		CurrentIndex:     engine.currentIndex,
		MaxIndex:         maxIndex,
		VisibleCount:     engine.visibleCount,
		State:            engine.state,
		ShowControls:     engine.reviewCount > engine.visibleCount,
		DotCount:         maxIndex + 1,
		ShowRestart:      engine.viewportWidth < restartViewportWidth && maxIndex > 0 && engine.currentIndex >= maxIndex,
		TranslatePercent: float64(-engine.currentIndex) * 100 / float64(engine.visibleCount),
	}
}

func (engine *Engine) stepLocked(direction int) {
	positions := engine.maxIndexLocked() + 1
	engine.currentIndex = ((engine.currentIndex+direction)%positions + positions) % positions
}

func (engine *Engine) clampLocked(index int) int {
	maxIndex := engine.maxIndexLocked()
	if index < 0 {
		return 0
	}
	if index > maxIndex {
		return maxIndex
	}
	return index
}

func (engine *Engine) pauseLocked(cooldown time.Duration) {
	engine.state = StatePaused
	engine.pausedUntil = engine.now().Add(cooldown)
}
