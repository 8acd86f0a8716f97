// Package queue serializes outbound generation calls. A single worker drains
// a priority-ordered queue while keeping a minimum gap between dispatches and
// a per-minute cap.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueCleared = errors.New("queue cleared")
	ErrCallTimeout  = errors.New("generation timed out")
)

const rateLimitPause = time.Minute

type Config struct {
	MinInterval  time.Duration
	MaxPerMinute int
	// CallTimeout bounds each execution. Zero disables it.
	CallTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinInterval:  time.Second,
		MaxPerMinute: 60,
		CallTimeout:  90 * time.Second,
	}
}

// Call is a queued unit of work and the handle used to wait for its result.
type Call struct {
	ID         uuid.UUID
	Priority   int
	EnqueuedAt time.Time

	ctx  context.Context
	fn   func(ctx context.Context) (any, error)
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

func (c *Call) resolve(val any, err error) {
	c.once.Do(func() {
		c.val, c.err = val, err
		close(c.done)
	})
}

func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call finishes or ctx is done.
func (c *Call) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type Status struct {
	QueueLength  int  `json:"queue_length"`
	Processing   bool `json:"processing"`
	RequestCount int  `json:"request_count"`
}

type Throttler struct {
	cfg Config

	mu           sync.Mutex
	queue        []*Call
	processing   bool
	requestCount int
	lastDispatch time.Time

	now   func() time.Time
	sleep func(d time.Duration)
}

func NewThrottler(cfg Config) *Throttler {
	def := DefaultConfig()
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.MaxPerMinute <= 0 {
		cfg.MaxPerMinute = def.MaxPerMinute
	}
	return &Throttler{
		cfg:   cfg,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Enqueue adds fn to the queue. Higher priority runs first; equal priorities
// keep arrival order. If ctx is done before the call is dispatched, fn is
// skipped and the call resolves with ctx's error.
func (t *Throttler) Enqueue(ctx context.Context, fn func(ctx context.Context) (any, error), priority int) *Call {
	call := &Call{
		ID:         uuid.New(),
		Priority:   priority,
		EnqueuedAt: t.now(),
		ctx:        ctx,
		fn:         fn,
		done:       make(chan struct{}),
	}

	t.mu.Lock()
	t.queue = append(t.queue, call)
	sort.SliceStable(t.queue, func(i, j int) bool {
		return t.queue[i].Priority > t.queue[j].Priority
	})
	start := !t.processing
	t.processing = true
	t.mu.Unlock()

	if start {
		go t.drain()
	}
	return call
}

// Do enqueues fn and waits for its typed result.
func Do[T any](ctx context.Context, t *Throttler, priority int, fn func(ctx context.Context) (T, error)) (T, error) {
	call := t.Enqueue(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, priority)

	val, err := call.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	res, _ := val.(T)
	return res, nil
}

// Clear rejects every queued call with ErrQueueCleared. A call that is
// already executing is not interrupted.
func (t *Throttler) Clear() {
	t.mu.Lock()
	pending := t.queue
	t.queue = nil
	t.mu.Unlock()

	for _, call := range pending {
		call.resolve(nil, ErrQueueCleared)
	}
	if len(pending) > 0 {
		log.Printf("queue: cleared %d pending calls", len(pending))
	}
}

func (t *Throttler) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		QueueLength:  len(t.queue),
		Processing:   t.processing,
		RequestCount: t.requestCount,
	}
}

func (t *Throttler) drain() {
	for {
		t.mu.Lock()
		if len(t.queue) == 0 {
			t.processing = false
			t.mu.Unlock()
			return
		}
		since := t.now().Sub(t.lastDispatch)
		t.mu.Unlock()

		if wait := t.cfg.MinInterval - since; wait > 0 {
			t.sleep(wait)
		}

		t.mu.Lock()
		capped := t.requestCount >= t.cfg.MaxPerMinute
		t.mu.Unlock()
		if capped {
			log.Printf("queue: rate limit of %d/min reached, pausing %s", t.cfg.MaxPerMinute, rateLimitPause)
			t.sleep(rateLimitPause)
			t.mu.Lock()
			t.requestCount = 0
			t.mu.Unlock()
		}

		t.mu.Lock()
		if len(t.queue) == 0 {
			// Cleared while waiting.
			t.processing = false
			t.mu.Unlock()
			return
		}
		call := t.queue[0]
		t.queue = t.queue[1:]
		if err := call.ctx.Err(); err != nil {
			t.mu.Unlock()
			call.resolve(nil, err)
			continue
		}
		t.lastDispatch = t.now()
		t.requestCount++
		t.mu.Unlock()

		t.execute(call)
	}
}

func (t *Throttler) execute(call *Call) {
	ctx := call.ctx
	cancel := func() {}
	if t.cfg.CallTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.cfg.CallTimeout)
	}
	defer cancel()

	type outcome struct {
		val any
		err error
	}
	result := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- outcome{err: fmt.Errorf("queued call panicked: %v", r)}
			}
		}()
		val, err := call.fn(ctx)
		result <- outcome{val: val, err: err}
	}()

	var (
		val any
		err error
	)
	select {
	case out := <-result:
		val, err = out.val, out.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && call.ctx.Err() == nil {
		err = fmt.Errorf("%w after %s", ErrCallTimeout, t.cfg.CallTimeout)
	}
	call.resolve(val, err)
}
