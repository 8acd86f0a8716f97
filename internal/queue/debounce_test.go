package queue

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_RunsLastCallOnce(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls, last atomic.Int32

	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Call(func() {
			calls.Add(1)
			last.Store(n)
		})
	}

	time.Sleep(150 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("Expected 1 call, got %d", calls.Load())
	}
	if last.Load() != 5 {
		t.Errorf("Expected last call to win, got %d", last.Load())
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32

	d.Call(func() { calls.Add(1) })
	d.Cancel()

	time.Sleep(80 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("Expected cancelled call not to run, got %d", calls.Load())
	}
}

func TestThrottle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	th := NewThrottle(time.Second)
	th.now = clock.Now

	count := 0
	inc := func() { count++ }

	if !th.Call(inc) {
		t.Error("Expected first call to run")
	}
	if th.Call(inc) {
		t.Error("Expected second call inside window to be dropped")
	}

	clock.Sleep(time.Second)
	if !th.Call(inc) {
		t.Error("Expected call after window to run")
	}

	th.Cancel()
	if !th.Call(inc) {
		t.Error("Expected call after Cancel to run")
	}
	if count != 3 {
		t.Errorf("Expected 3 runs, got %d", count)
	}
}
