package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsTasks(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 3, QueueSize: 16, Timeout: time.Second})

	var ran int32
	for i := 0; i < 10; i++ {
		d.Dispatch(context.Background(), "count", "", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}
	d.Dispatch(context.Background(), "fail", "", func(ctx context.Context) error {
		return errors.New("boom")
	})
	d.Dispatch(context.Background(), "panic", "", func(ctx context.Context) error {
		panic("boom")
	})

	require.NoError(t, d.Close(context.Background()))
	assert.EqualValues(t, 10, atomic.LoadInt32(&ran))
}

func TestDispatcherKeepsKeyOrder(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 4, QueueSize: 16, Timeout: time.Second})

	var mu sync.Mutex
	var order []string
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, step)
	}

	d.Dispatch(context.Background(), "subscribe", "user:1", func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		record("subscribe")
		return nil
	})
	for i := 0; i < 4; i++ {
		d.Dispatch(context.Background(), "other", "", func(ctx context.Context) error {
			return nil
		})
	}
	d.Dispatch(context.Background(), "unsubscribe", "user:1", func(ctx context.Context) error {
		record("unsubscribe")
		return nil
	})

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, []string{"subscribe", "unsubscribe"}, order)
}

func TestDispatcherDetachesFromRequest(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 1, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var taskErr error
	d.Dispatch(ctx, "detached", "", func(ctx context.Context) error {
		taskErr = ctx.Err()
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	require.NoError(t, d.Close(context.Background()))
	assert.NoError(t, taskErr)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 1, Timeout: time.Second})

	release := make(chan struct{})
	started := make(chan struct{})
	var ran int32

	d.Dispatch(context.Background(), "block", "", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), "extra", "", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}
	close(release)

	require.NoError(t, d.Close(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&ran), "only one task fits in the queue")
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{})
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	d.Dispatch(context.Background(), "late", "", func(ctx context.Context) error {
		t.Error("task ran after close")
		return nil
	})
}
