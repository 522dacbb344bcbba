// Package resource provides global resource limits for allocator-backed
// containers: a hard memory budget, pacing for buffer mapping, and a bound
// on concurrently scheduled lanes.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hupe1980/slotted"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxLanes is the maximum number of concurrently scheduled lanes.
	// If 0, defaults to 1.
	MaxLanes int64

	// MapBytesPerSec paces buffer mapping throughput.
	// If 0, unlimited.
	MapBytesPerSec int64
}

// Controller manages global resources (memory, lanes, mapping throughput).
// It implements alloc.MemoryAcquirer.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Lanes
	laneSem *semaphore.Weighted

	// Mapping throughput
	mapLimiter *rate.Limiter // nil if unlimited

	logger *slotted.Logger
}

// ControllerOption is a configuration option for Controller.
type ControllerOption func(*Controller)

// WithLogger sets a logger for limit events (Warn level).
func WithLogger(logger *slotted.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a new resource controller.
func NewController(cfg Config, opts ...ControllerOption) *Controller {
	if cfg.MaxLanes <= 0 {
		cfg.MaxLanes = 1
	}

	c := &Controller{
		cfg:     cfg,
		laneSem: semaphore.NewWeighted(cfg.MaxLanes),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.MapBytesPerSec > 0 {
		c.mapLimiter = rate.NewLimiter(rate.Limit(cfg.MapBytesPerSec), int(cfg.MapBytesPerSec))
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AcquireMemory reserves amount bytes against the memory budget, pacing the
// reservation if a mapping rate is configured. It blocks until the budget
// allows the reservation or ctx is done.
func (c *Controller) AcquireMemory(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return nil
	}

	if c.mapLimiter != nil {
		// WaitN cannot exceed the burst; reserve in burst-sized steps.
		burst := int64(c.mapLimiter.Burst())
		for remaining := amount; remaining > 0; {
			n := remaining
			if n > burst {
				n = burst
			}
			if err := c.mapLimiter.WaitN(ctx, int(n)); err != nil {
				return fmt.Errorf("resource: mapping pacing: %w", err)
			}
			remaining -= n
		}
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(amount) {
			if c.logger != nil {
				c.logger.Warn("memory reservation denied",
					"requested", amount,
					"used", c.memUsed.Load(),
					"limit", c.cfg.MemoryLimitBytes,
				)
			}
			return fmt.Errorf("%w: requested %d, used %d of %d",
				ErrMemoryLimitExceeded, amount, c.memUsed.Load(), c.cfg.MemoryLimitBytes)
		}
	}

	c.memUsed.Add(amount)
	return nil
}

// ReleaseMemory returns amount bytes to the memory budget.
func (c *Controller) ReleaseMemory(amount int64) {
	if amount <= 0 {
		return
	}
	c.memUsed.Add(-amount)
	if c.memSem != nil {
		c.memSem.Release(amount)
	}
}

// AcquireLane blocks until a lane slot is available or ctx is done.
func (c *Controller) AcquireLane(ctx context.Context) error {
	return c.laneSem.Acquire(ctx, 1)
}

// ReleaseLane returns a lane slot.
func (c *Controller) ReleaseLane() {
	c.laneSem.Release(1)
}

// MemoryUsed returns the currently reserved bytes.
func (c *Controller) MemoryUsed() int64 {
	return c.memUsed.Load()
}
