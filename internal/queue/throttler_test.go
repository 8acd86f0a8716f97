package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestThrottler(cfg Config) (*Throttler, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	t := NewThrottler(cfg)
	t.now = clock.Now
	t.sleep = clock.Sleep
	return t, clock
}

func waitAll(t *testing.T, calls ...*Call) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range calls {
		if _, err := c.Wait(ctx); errors.Is(err, context.DeadlineExceeded) {
			t.Fatal("Timed out waiting for queued call")
		}
	}
}

// blockQueue enqueues a call that holds the worker until release is closed.
func blockQueue(th *Throttler) (release chan struct{}, gate *Call) {
	started := make(chan struct{})
	release = make(chan struct{})
	gate = th.Enqueue(context.Background(), func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, 100)
	<-started
	return release, gate
}

func TestThrottler_PriorityThenFIFO(t *testing.T) {
	th, _ := newTestThrottler(Config{MinInterval: time.Second, MaxPerMinute: 60})
	release, gate := blockQueue(th)

	var mu sync.Mutex
	var order []int
	record := func(n int) func(ctx context.Context) (any, error) {
		return func(ctx context.Context) (any, error) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return n, nil
		}
	}

	c1 := th.Enqueue(context.Background(), record(1), 0)
	c2 := th.Enqueue(context.Background(), record(2), 5)
	c3 := th.Enqueue(context.Background(), record(3), 0)
	close(release)
	waitAll(t, gate, c1, c2, c3)

	want := []int{2, 1, 3}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

func TestThrottler_MinInterval(t *testing.T) {
	th, clock := newTestThrottler(Config{MinInterval: time.Second, MaxPerMinute: 60})

	var mu sync.Mutex
	var times []time.Time
	stamp := func(ctx context.Context) (any, error) {
		mu.Lock()
		times = append(times, clock.Now())
		mu.Unlock()
		return nil, nil
	}

	calls := make([]*Call, 0, 5)
	for i := 0; i < 5; i++ {
		calls = append(calls, th.Enqueue(context.Background(), stamp, 0))
	}
	waitAll(t, calls...)

	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < time.Second {
			t.Errorf("Calls %d and %d only %s apart", i-1, i, gap)
		}
	}
}

func TestThrottler_PerMinuteCap(t *testing.T) {
	const limit = 3
	th, clock := newTestThrottler(Config{MinInterval: time.Second, MaxPerMinute: limit})

	var mu sync.Mutex
	var times []time.Time
	stamp := func(ctx context.Context) (any, error) {
		mu.Lock()
		times = append(times, clock.Now())
		mu.Unlock()
		return nil, nil
	}

	calls := make([]*Call, 0, limit+1)
	for i := 0; i < limit+1; i++ {
		calls = append(calls, th.Enqueue(context.Background(), stamp, 0))
	}
	waitAll(t, calls...)

	if len(times) != limit+1 {
		t.Fatalf("Expected %d executions, got %d", limit+1, len(times))
	}
	if gap := times[limit].Sub(times[limit-1]); gap < time.Minute {
		t.Errorf("Expected call %d at least 60s after call %d, got %s", limit+1, limit, gap)
	}
}

func TestThrottler_Clear(t *testing.T) {
	th, _ := newTestThrottler(Config{MinInterval: time.Second, MaxPerMinute: 60})
	release, gate := blockQueue(th)

	ran := false
	pending := th.Enqueue(context.Background(), func(ctx context.Context) (any, error) {
		ran = true
		return nil, nil
	}, 0)

	if got := th.Status().QueueLength; got != 1 {
		t.Fatalf("Expected 1 queued call, got %d", got)
	}

	th.Clear()
	_, err := pending.Wait(context.Background())
	if !errors.Is(err, ErrQueueCleared) {
		t.Errorf("Expected ErrQueueCleared, got %v", err)
	}

	close(release)
	if _, err := gate.Wait(context.Background()); err != nil {
		t.Errorf("Expected in-flight call to finish normally, got %v", err)
	}
	if ran {
		t.Error("Expected cleared call not to run")
	}
}

func TestThrottler_CallTimeout(t *testing.T) {
	th, _ := newTestThrottler(Config{MinInterval: time.Second, MaxPerMinute: 60, CallTimeout: 20 * time.Millisecond})

	slow := th.Enqueue(context.Background(), func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 0)
	_, err := slow.Wait(context.Background())
	if !errors.Is(err, ErrCallTimeout) {
		t.Fatalf("Expected ErrCallTimeout, got %v", err)
	}

	next := th.Enqueue(context.Background(), func(ctx context.Context) (any, error) {
		return "ok", nil
	}, 0)
	val, err := next.Wait(context.Background())
	if err != nil || val != "ok" {
		t.Errorf("Expected queue to keep working after a timeout, got %v, %v", val, err)
	}
}

func TestThrottler_SkipsCancelledCalls(t *testing.T) {
	th, _ := newTestThrottler(Config{MinInterval: time.Second, MaxPerMinute: 60})
	release, gate := blockQueue(th)

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	call := th.Enqueue(ctx, func(ctx context.Context) (any, error) {
		ran = true
		return nil, nil
	}, 0)
	cancel()
	close(release)

	waitAll(t, gate)
	<-call.Done()
	if ran {
		t.Error("Expected cancelled call to be skipped")
	}
	if _, err := call.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestDo(t *testing.T) {
	th, _ := newTestThrottler(DefaultConfig())

	got, err := Do(context.Background(), th, 0, func(ctx context.Context) (string, error) {
		return "typed", nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "typed" {
		t.Errorf("Expected 'typed', got %q", got)
	}

	boom := errors.New("boom")
	_, err = Do(context.Background(), th, 0, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
}

func TestStatus_Idle(t *testing.T) {
	th, _ := newTestThrottler(DefaultConfig())
	st := th.Status()
	if st.Processing || st.QueueLength != 0 || st.RequestCount != 0 {
		t.Errorf("Expected idle status, got %+v", st)
	}
}
