package archiver

import (
	"context"
	"log"
	"sync"
)

// Worker consumes archival triggers on a single background goroutine. Every
// trigger drains the full unarchived queue once; the channel is buffered with
// capacity 1 so redundant triggers coalesce instead of piling up.
type Worker struct {
	archiver *Archiver
	triggers chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool
}

func NewWorker(archiver *Archiver) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		archiver: archiver,
		triggers: make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	log.Println("Starting archival worker")

	w.wg.Add(1)
	go w.loop()
}

func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	log.Println("Stopping archival worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("Archival worker stopped")
}

// Notify requests a queue drain without waiting for it. Callers fire and
// forget: a feed refresh returns before archival completes.
func (w *Worker) Notify() {
	select {
	case w.triggers <- struct{}{}:
	default:
		// A drain is already pending; it will pick up the new articles.
	}
}

// Archiver exposes the underlying archiver for synchronous maintenance
// drains.
func (w *Worker) Archiver() *Archiver {
	return w.archiver
}

func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.triggers:
			w.archiver.ProcessQueue()
		case <-w.ctx.Done():
			return
		}
	}
}
