package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"rssreader/internal/reader"
)

// Poller periodically refreshes all subscribed feeds in the background.
// Archival of new articles is triggered by the refresh itself and runs on
// the archiver's own worker.
type Poller struct {
	service     *reader.Service
	interval    time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	isPolling   bool
	lastRefresh time.Time
}

func New(service *reader.Service, interval time.Duration) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		service:  service,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (p *Poller) Start() {
	if p.interval <= 0 {
		log.Println("Background feed refresh disabled")
		return
	}

	p.mu.Lock()
	if p.isPolling {
		p.mu.Unlock()
		return
	}
	p.isPolling = true
	p.mu.Unlock()

	log.Printf("Starting background feed refresh with interval: %v", p.interval)

	p.wg.Add(1)
	go p.pollLoop()
}

func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.isPolling {
		p.mu.Unlock()
		return
	}
	p.isPolling = false
	p.mu.Unlock()

	log.Println("Stopping background feed refresh...")
	p.cancel()
	p.wg.Wait()
	log.Println("Background feed refresh stopped")
}

func (p *Poller) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Refresh immediately on start
	p.refreshAll()

	for {
		select {
		case <-ticker.C:
			p.refreshAll()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Poller) refreshAll() {
	log.Println("Starting background feed refresh...")
	p.service.RefreshAllFeeds()

	p.mu.Lock()
	p.lastRefresh = time.Now()
	p.mu.Unlock()

	log.Println("Background feed refresh completed")
}

func (p *Poller) IsPolling() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isPolling
}

func (p *Poller) LastRefresh() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastRefresh
}
