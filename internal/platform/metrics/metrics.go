package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps process-local request and domain counters for /metrics.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu        sync.Mutex
	mutations map[string]uint64
}

func New() *Collector {
	return &Collector{mutations: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Mutation counts a successful domain write such as "target.update".
// Safe on a nil collector.
func (c *Collector) Mutation(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.mutations[kind]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	mutations := make(map[string]uint64, len(c.mutations))
	for k, v := range c.mutations {
		mutations[k] = v
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"mutationsTotal":   mutations,
	}
}
