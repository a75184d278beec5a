package msgworker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatch_SamePhoneKeepsArrivalOrder(t *testing.T) {
	pool := NewInboundWorkerPool(4, 100)
	pool.Start(context.Background())

	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		seq := i
		ok := pool.Dispatch(InboundJob{
			Phone: "919876543210",
			Handler: func(context.Context) error {
				mu.Lock()
				order = append(order, seq)
				mu.Unlock()
				return nil
			},
		})
		require.True(t, ok)
	}
	pool.Stop()

	require.Len(t, order, 50)
	for i, seq := range order {
		require.Equal(t, i, seq, "jobs from one phone must apply in arrival order")
	}
}

func TestDispatch_DropsWhenQueueFull(t *testing.T) {
	pool := NewInboundWorkerPool(1, 1)
	pool.Start(context.Background())
	defer pool.Stop()

	release := make(chan struct{})
	blocker := func(context.Context) error {
		<-release
		return nil
	}

	// First job occupies the worker, second fills the queue; eventually a
	// dispatch must report a drop.
	dropped := false
	for i := 0; i < 10; i++ {
		if !pool.Dispatch(InboundJob{Phone: "15550001111", Handler: blocker}) {
			dropped = true
			break
		}
	}
	close(release)

	require.True(t, dropped)
	require.Greater(t, pool.Stats().TotalDropped, int64(0))
}

func TestDispatch_AfterStopReportsDrop(t *testing.T) {
	pool := NewInboundWorkerPool(2, 10)
	pool.Start(context.Background())
	pool.Stop()

	// A webhook racing shutdown must get a drop signal, not a panic, so the
	// handler can fall back to inline processing.
	ok := pool.Dispatch(InboundJob{
		Phone:   "919876543210",
		Handler: func(context.Context) error { return nil },
	})
	require.False(t, ok)
	require.Equal(t, int64(1), pool.Stats().TotalDropped)
	require.Equal(t, int64(0), pool.Stats().TotalDispatched)
}

func TestStats_CountsProcessedJobs(t *testing.T) {
	pool := NewInboundWorkerPool(2, 10)
	pool.Start(context.Background())

	done := make(chan struct{}, 6)
	for i := 0; i < 6; i++ {
		pool.Dispatch(InboundJob{
			Phone: "1555000111" + string(rune('0'+i)),
			Handler: func(context.Context) error {
				done <- struct{}{}
				return nil
			},
		})
	}
	for i := 0; i < 6; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	pool.Stop()

	stats := pool.Stats()
	require.Equal(t, int64(6), stats.TotalDispatched)
	require.Equal(t, int64(6), stats.TotalProcessed)
	require.Equal(t, int64(0), stats.TotalDropped)
}
