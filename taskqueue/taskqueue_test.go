package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

type closePayload struct {
	BatchID string `json:"batch_id"`
}

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newQueue(db *badger.DB, maxAttempts int) *Queue {
	return NewQueue(db, cmtlog.NewNopLogger(), testclock.NewFakeClock(time.Now()), Config{Workers: 1, MaxAttempts: maxAttempts})
}

func TestEnqueueAndRun(t *testing.T) {
	ctx := context.Background()
	q := newQueue(openDB(t), 3)

	var got []string
	q.Register("close", func(ctx context.Context, raw json.RawMessage) error {
		var p closePayload
		require.NoError(t, json.Unmarshal(raw, &p))
		got = append(got, p.BatchID)
		return nil
	})

	_, err := q.Enqueue(ctx, "close", "", closePayload{BatchID: "B-1"})
	require.NoError(t, err)

	done, err := q.RunPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, []string{"B-1"}, got)

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEnqueueDedupe(t *testing.T) {
	ctx := context.Background()
	q := newQueue(openDB(t), 3)
	var calls int
	q.Register("close", func(ctx context.Context, raw json.RawMessage) error {
		calls++
		return nil
	})

	first, err := q.Enqueue(ctx, "close", "close:B-1", closePayload{BatchID: "B-1"})
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, "close", "close:B-1", closePayload{BatchID: "B-1"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = q.RunPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// once completed the key is free again
	third, err := q.Enqueue(ctx, "close", "close:B-1", closePayload{BatchID: "B-1"})
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestRetryThenBury(t *testing.T) {
	ctx := context.Background()
	q := newQueue(openDB(t), 2)
	q.Register("close", func(ctx context.Context, raw json.RawMessage) error {
		return errors.New("routine unavailable")
	})

	_, err := q.Enqueue(ctx, "close", "close:B-1", closePayload{BatchID: "B-1"})
	require.NoError(t, err)

	done, err := q.RunPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, done)

	pending, err := q.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "routine unavailable", pending[0].LastError)

	_, err = q.RunPending(ctx)
	require.NoError(t, err)

	pending, err = q.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	dead, err := q.Dead()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, 2, dead[0].Attempts)
}

func TestPanicIsAFailure(t *testing.T) {
	ctx := context.Background()
	q := newQueue(openDB(t), 5)
	q.Register("close", func(ctx context.Context, raw json.RawMessage) error {
		panic("nil batch")
	})
	_, err := q.Enqueue(ctx, "close", "", closePayload{})
	require.NoError(t, err)

	done, err := q.RunPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, done)
}

func TestUnknownKindRejected(t *testing.T) {
	q := newQueue(openDB(t), 1)
	_, err := q.Enqueue(context.Background(), "missing", "", nil)
	require.Error(t, err)
}

func TestRecoveryAcrossRestart(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	before := newQueue(db, 3)
	before.Register("close", func(ctx context.Context, raw json.RawMessage) error { return nil })
	_, err := before.Enqueue(ctx, "close", "close:B-7", closePayload{BatchID: "B-7"})
	require.NoError(t, err)

	var handled atomic.Int32
	after := newQueue(db, 3)
	after.Register("close", func(ctx context.Context, raw json.RawMessage) error {
		handled.Add(1)
		return nil
	})
	require.NoError(t, after.Start(ctx))
	defer after.Stop()

	require.Eventually(t, func() bool { return handled.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		pending, err := after.Pending()
		return err == nil && len(pending) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestBackoff(t *testing.T) {
	q := NewQueue(openDB(t), cmtlog.NewNopLogger(), testclock.NewFakeClock(time.Now()), Config{Backoff: time.Second})
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{4, 8 * time.Second},
		{7, 64 * time.Second},
		{50, 64 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, q.backoff(tt.attempts), "attempts %d", tt.attempts)
	}
}

func TestDeliveryOfRunningTask(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewFakeClock(time.Now())
	q := NewQueue(openDB(t), cmtlog.NewNopLogger(), clk, Config{Backoff: time.Second})
	var calls atomic.Int32
	q.Register("close", func(ctx context.Context, raw json.RawMessage) error {
		calls.Add(1)
		return nil
	})
	id, err := q.Enqueue(ctx, "close", "", closePayload{BatchID: "B-1"})
	require.NoError(t, err)
	<-q.ready

	q.mu.Lock()
	q.running[id] = true
	q.mu.Unlock()

	assert.Equal(t, outcomeBusy, q.process(ctx, id))
	assert.Zero(t, calls.Load())

	pending, err := q.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Zero(t, pending[0].Attempts)

	// a task with no recorded attempt is rescheduled after one backoff unit
	assert.NotPanics(t, func() { q.retryLater(ctx, id) })
	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(time.Second)
	select {
	case got := <-q.ready:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("task was not redelivered")
	}

	q.mu.Lock()
	delete(q.running, id)
	q.mu.Unlock()
	assert.Equal(t, outcomeDone, q.process(ctx, id))
	assert.EqualValues(t, 1, calls.Load())
}
