// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/tracker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newExecutor(t *testing.T, q *Queue, budget int) (*Executor, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New(100, time.Minute)
	return NewExecutor(q, tr, budget, zerolog.Nop()), tr
}

func TestEnqueueFIFOWithinChannel(t *testing.T) {
	q := New(8)
	ex, _ := newExecutor(t, q, 10)

	var seen []string
	ex.Register("add_element", func(_ context.Context, payload map[string]any) envelope.Envelope {
		seen = append(seen, payload["name"].(string))
		return envelope.OK(nil)
	})

	for _, name := range []string{"a", "b", "c"} {
		_, err := q.Enqueue(ChannelElements, "add_element", map[string]any{"name": name}, "")
		require.NoError(t, err)
	}

	ex.Tick(context.Background())
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestTickBudget(t *testing.T) {
	q := New(8)
	ex, _ := newExecutor(t, q, 2)
	ex.Register("add_element", func(_ context.Context, _ map[string]any) envelope.Envelope {
		return envelope.OK(nil)
	})

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ChannelElements, "add_element", nil, "")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, ex.Tick(context.Background()))
	assert.Equal(t, 1, q.Depth())
	assert.Equal(t, 1, ex.Tick(context.Background()))
	assert.Equal(t, 0, q.Depth())
}

func TestQueueFullBackpressure(t *testing.T) {
	q := New(2)
	_, err := q.Enqueue(ChannelElements, "op", nil, "")
	require.NoError(t, err)
	_, err = q.Enqueue(ChannelElements, "op", nil, "")
	require.NoError(t, err)

	_, err = q.Enqueue(ChannelElements, "op", nil, "")
	assert.ErrorIs(t, err, ErrQueueFull)

	// One drain frees a slot.
	ex, _ := newExecutor(t, q, 1)
	ex.Register("op", func(_ context.Context, _ map[string]any) envelope.Envelope {
		return envelope.OK(nil)
	})
	ex.Tick(context.Background())

	_, err = q.Enqueue(ChannelElements, "op", nil, "")
	assert.NoError(t, err)
}

func TestResultDeliveredOnOneShotChannel(t *testing.T) {
	q := New(8)
	ex, _ := newExecutor(t, q, 2)
	ex.Register("add_element", func(_ context.Context, payload map[string]any) envelope.Envelope {
		return envelope.OK(map[string]any{"path": "/World/" + payload["name"].(string)})
	})

	entry, err := q.Enqueue(ChannelElements, "add_element", map[string]any{"name": "cube"}, "")
	require.NoError(t, err)

	ex.Tick(context.Background())

	select {
	case env := <-entry.Result():
		assert.True(t, env.Success())
		assert.Equal(t, "/World/cube", env["path"])
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
}

func TestTrackerUpdatedOnCompletion(t *testing.T) {
	q := New(8)
	ex, tr := newExecutor(t, q, 2)
	ex.Register("add_element", func(_ context.Context, _ map[string]any) envelope.Envelope {
		return envelope.OK(nil)
	})

	tr.Add("req-1", "add_element", nil)
	_, err := q.Enqueue(ChannelElements, "add_element", nil, "req-1")
	require.NoError(t, err)

	ex.Tick(context.Background())

	snap := tr.Get("req-1")
	require.NotNil(t, snap)
	assert.True(t, snap.Completed)
	assert.True(t, snap.Result.Success())
}

func TestHandlerFailureWrappedAsOperationFailed(t *testing.T) {
	q := New(8)
	ex, tr := newExecutor(t, q, 2)
	ex.Register("add_element", func(_ context.Context, _ map[string]any) envelope.Envelope {
		return envelope.Envelope{"success": false}
	})

	tr.Add("req-1", "add_element", nil)
	entry, err := q.Enqueue(ChannelElements, "add_element", nil, "req-1")
	require.NoError(t, err)

	ex.Tick(context.Background())

	env := <-entry.Result()
	assert.False(t, env.Success())
	assert.Equal(t, "ADD_ELEMENT_FAILED", env.Code())
	assert.Equal(t, "An unknown error occurred", env.Message())

	snap := tr.Get("req-1")
	require.NotNil(t, snap)
	assert.True(t, snap.Completed)
	assert.Equal(t, "ADD_ELEMENT_FAILED", snap.Error.Code())
}

func TestHandlerPanicContained(t *testing.T) {
	q := New(8)
	ex, _ := newExecutor(t, q, 2)
	ex.Register("clear_path", func(_ context.Context, _ map[string]any) envelope.Envelope {
		panic("boom")
	})

	entry, err := q.Enqueue(ChannelOther, "clear_path", nil, "")
	require.NoError(t, err)

	ex.Tick(context.Background())

	env := <-entry.Result()
	assert.False(t, env.Success())
	assert.Equal(t, "CLEAR_PATH_FAILED", env.Code())
}

func TestUnknownOperation(t *testing.T) {
	q := New(8)
	ex, _ := newExecutor(t, q, 2)

	entry, err := q.Enqueue(ChannelOther, "nonexistent", nil, "")
	require.NoError(t, err)

	ex.Tick(context.Background())

	env := <-entry.Result()
	assert.Equal(t, envelope.CodeUnknownTool, env.Code())
}

func TestChannelRotationAvoidsStarvation(t *testing.T) {
	q := New(32)
	ex, _ := newExecutor(t, q, 1)

	var order []string
	record := func(tag string) Handler {
		return func(_ context.Context, _ map[string]any) envelope.Envelope {
			order = append(order, tag)
			return envelope.OK(nil)
		}
	}
	ex.Register("el", record("el"))
	ex.Register("other", record("other"))

	for i := 0; i < 4; i++ {
		_, err := q.Enqueue(ChannelElements, "el", nil, "")
		require.NoError(t, err)
	}
	_, err := q.Enqueue(ChannelOther, "other", nil, "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ex.Tick(context.Background())
	}

	assert.Contains(t, order, "other")
	assert.Len(t, order, 5)
	// The starved channel still completes everything it held.
	assert.Equal(t, 0, q.Depth())
}

func TestCloseFailsPendingEntries(t *testing.T) {
	q := New(8)
	entry, err := q.Enqueue(ChannelElements, "op", nil, "")
	require.NoError(t, err)

	q.Close()

	env := <-entry.Result()
	assert.Equal(t, envelope.CodeServiceUnavailable, env.Code())

	_, err = q.Enqueue(ChannelElements, "op", nil, "")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDepthByChannel(t *testing.T) {
	q := New(8)
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ChannelElements, "op", nil, "")
		require.NoError(t, err)
	}
	_, err := q.Enqueue(ChannelAssets, "op", nil, "")
	require.NoError(t, err)

	depths := q.DepthByChannel()
	assert.Equal(t, 3, depths[ChannelElements])
	assert.Equal(t, 1, depths[ChannelAssets])
	assert.Equal(t, 0, depths[ChannelBatches])

	_ = fmt.Sprintf("%v", depths)
}

func TestConcurrentEnqueueWhileDraining(t *testing.T) {
	q := New(256)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for tick := 0; tick < 200; tick++ {
			q.Drain(4, tick)
		}
	}()

	channels := []Channel{ChannelElements, ChannelBatches, ChannelAssets, Channel("bogus")}
	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := q.Enqueue(ch, "op", nil, ""); err != nil {
					require.ErrorIs(t, err, ErrQueueFull)
				}
			}
		}(ch)
	}
	wg.Wait()
	<-done

	// Unknown channels land in "other" rather than growing the map.
	depths := q.DepthByChannel()
	assert.Len(t, depths, 4)
}
