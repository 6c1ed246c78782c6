package runtime

import (
	"context"
	"sync"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

// Initializer starts a widget instance from a config.
type Initializer interface {
	Init(ctx context.Context, config widget.Config) (*Instance, error)
}

// PendingQueue collects configs pushed before the runtime is available. Bind
// drains them in push order; later pushes go straight to the bound initializer.
type PendingQueue struct {
	mutex       sync.Mutex
	pending     []widget.Config
	initializer Initializer
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Push queues config, or initializes it immediately once the queue is bound.
func (queue *PendingQueue) Push(ctx context.Context, config widget.Config) {
	queue.mutex.Lock()
	initializer := queue.initializer
	if initializer == nil {
		queue.pending = append(queue.pending, config)
		queue.mutex.Unlock()
		return
	}
	queue.mutex.Unlock()
	_, _ = initializer.Init(ctx, config)
}

// Len returns the number of configs waiting for Bind.
func (queue *PendingQueue) Len() int {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()
	return len(queue.pending)
}

// Bind attaches the initializer and drains the queue. Binding twice keeps the
// first initializer.
func (queue *PendingQueue) Bind(ctx context.Context, initializer Initializer) {
	if initializer == nil {
		return
	}
	queue.mutex.Lock()
	if queue.initializer != nil {
		queue.mutex.Unlock()
		return
	}
	queue.initializer = initializer
	drained := queue.pending
	queue.pending = nil
	queue.mutex.Unlock()

	for _, config := range drained {
		_, _ = initializer.Init(ctx, config)
	}
}
