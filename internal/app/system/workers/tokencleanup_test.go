package workers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/system/workers"
	"go.uber.org/zap"
)

type fakePurger struct {
	mu    sync.Mutex
	calls int
	n     int64
	err   error
}

func (f *fakePurger) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.n, f.err
}

func (f *fakePurger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnce(t *testing.T) {
	p := &fakePurger{n: 3}
	w := workers.NewTokenCleanup(p, zap.NewNop(), time.Hour)

	if got := w.RunOnce(context.Background()); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestRunOnce_StoreError(t *testing.T) {
	p := &fakePurger{err: errors.New("boom")}
	w := workers.NewTokenCleanup(p, zap.NewNop(), time.Hour)

	if got := w.RunOnce(context.Background()); got != 0 {
		t.Errorf("got %d, want 0 on error", got)
	}
}

func TestStartStop(t *testing.T) {
	p := &fakePurger{}
	w := workers.NewTokenCleanup(p, zap.NewNop(), 10*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for p.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if p.Calls() == 0 {
		t.Fatal("expected at least one purge before stop")
	}
	after := p.Calls()
	time.Sleep(30 * time.Millisecond)
	if p.Calls() != after {
		t.Error("worker kept running after Stop")
	}
}
