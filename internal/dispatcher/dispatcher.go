// Package dispatcher manages worker fan-out over the audit queue.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/seoscout/marketintel/internal/audit"
	"github.com/seoscout/marketintel/internal/intel"
)

// Dispatcher fans out queue work to a pool of workers.
type Dispatcher struct {
	queue   intel.Queue
	workers []*audit.Worker
}

// New creates a Dispatcher.
func New(queue intel.Queue, workers []*audit.Worker) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		workers: workers,
	}
}

// Run starts all workers and blocks until the context finishes.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *audit.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher) Enqueue(ctx context.Context, item intel.QueueItem) error {
	if err := d.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}
