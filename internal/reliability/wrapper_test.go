package reliability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/sched"
)

func newTestWrapper(policy Policy) (*Wrapper, *sched.Fake) {
	clock := sched.NewFake()
	clock.SetAutoAdvance(true)
	w := New(Options{Policy: policy, Scheduler: clock})
	return w, clock
}

func TestWrapSucceedsFirstAttempt(t *testing.T) {
	w, clock := newTestWrapper(Policy{})

	op := w.Wrap(func(ctx context.Context) (any, error) {
		return "ok", nil
	}, OperationContext{Channel: "todo:list", Kind: KindCollection})

	got, err := op(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Empty(t, clock.Sleeps())

	stats := w.Stats()
	assert.Equal(t, uint64(0), stats.TotalErrors)
	assert.Equal(t, uint64(0), stats.RetriedOperations)
	assert.Equal(t, 1.0, stats.SuccessRate)
}

func TestWrapRetriesThenSucceeds(t *testing.T) {
	w, clock := newTestWrapper(Policy{MaxRetries: 3})

	attempts := 0
	op := w.Wrap(func(ctx context.Context) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("transient outage %d", attempts)
		}
		return "recovered", nil
	}, OperationContext{Channel: "todo:list", Kind: KindCollection})

	got, err := op(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 3, attempts, "fails twice then succeeds = exactly 3 attempts")

	stats := w.Stats()
	assert.Equal(t, uint64(1), stats.RetriedOperations)
	assert.Equal(t, uint64(2), stats.TotalErrors)
	assert.Equal(t, uint64(0), stats.FailedOperations)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clock.Sleeps())
}

func TestBackoffSequence(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 8*time.Second, p.Backoff(4))
	assert.Equal(t, 10*time.Second, p.Backoff(5), "capped at MaxDelay")
}

func TestWrapDegradesToEmptyCollection(t *testing.T) {
	w, _ := newTestWrapper(Policy{MaxRetries: 2})

	attempts := 0
	op := w.Wrap(func(ctx context.Context) (any, error) {
		attempts++
		return nil, errors.New("db locked")
	}, OperationContext{Channel: "todo:list", Kind: KindCollection})

	got, err := op(context.Background())
	require.NoError(t, err, "degradation must swallow the failure")
	assert.Equal(t, []any{}, got)
	assert.Equal(t, 2, attempts)

	stats := w.Stats()
	assert.Equal(t, uint64(1), stats.FailedOperations)
	assert.Equal(t, uint64(1), stats.DegradedOperations)
	assert.Equal(t, uint64(2), stats.TotalErrors)
}

func TestWrapDegradationTable(t *testing.T) {
	tests := []struct {
		name  string
		opCtx OperationContext
		want  any
	}{
		{
			name:  "mutation degrades to nil",
			opCtx: OperationContext{Channel: "todo:create", Kind: KindMutation},
			want:  nil,
		},
		{
			name:  "deletion degrades to structured failure",
			opCtx: OperationContext{Channel: "todo:delete", Kind: KindDeletion},
			want:  DeletionResult{Success: false, Error: "boom"},
		},
		{
			name:  "boolean degrades to false",
			opCtx: OperationContext{Channel: "notify:send", Kind: KindBoolean},
			want:  false,
		},
		{
			name:  "generic degrades to fallback",
			opCtx: OperationContext{Channel: "config:get", Kind: KindGeneric, Fallback: "default-theme"},
			want:  "default-theme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWrapper(Policy{MaxRetries: 2})
			op := w.Wrap(func(ctx context.Context) (any, error) {
				return nil, errors.New("boom")
			}, tt.opCtx)

			got, err := op(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrapDegradationDisabledPropagatesLastError(t *testing.T) {
	w, _ := newTestWrapper(Policy{MaxRetries: 3})

	attempts := 0
	op := w.Wrap(func(ctx context.Context) (any, error) {
		attempts++
		return nil, fmt.Errorf("failure %d", attempts)
	}, OperationContext{Channel: "todo:update", Kind: KindMutation, DisableDegradation: true})

	_, err := op(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "failure 3", "exactly the last attempt's error propagates")
}

func TestWrapPermanentErrorNotRetried(t *testing.T) {
	w, clock := newTestWrapper(Policy{MaxRetries: 3})

	attempts := 0
	op := w.Wrap(func(ctx context.Context) (any, error) {
		attempts++
		return nil, Permanentf("title must not be empty")
	}, OperationContext{Channel: "todo:create", Kind: KindMutation})

	_, err := op(context.Background())
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, attempts)
	assert.Empty(t, clock.Sleeps())
}

func TestWrapCancelledContextAbortsRetries(t *testing.T) {
	clock := sched.NewFake()
	w := New(Options{Policy: Policy{MaxRetries: 3}, Scheduler: clock})

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	op := w.Wrap(func(ctx context.Context) (any, error) {
		attempts++
		cancel()
		return nil, errors.New("transient")
	}, OperationContext{Channel: "todo:list", Kind: KindCollection})

	_, err := op(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "no retries after cancellation")
}

func TestWrapConcurrentCounters(t *testing.T) {
	w, _ := newTestWrapper(Policy{MaxRetries: 1})

	op := w.Wrap(func(ctx context.Context) (any, error) {
		return nil, errors.New("always fails")
	}, OperationContext{Channel: "todo:list", Kind: KindCollection})

	done := make(chan struct{})
	const n = 20
	for i := 0; i < n; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = op(context.Background())
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	stats := w.Stats()
	assert.Equal(t, uint64(n), stats.TotalErrors)
	assert.Equal(t, uint64(n), stats.FailedOperations)
	assert.Equal(t, uint64(n), stats.DegradedOperations)
}

func TestStatsTopTags(t *testing.T) {
	w, _ := newTestWrapper(Policy{MaxRetries: 1})

	fail := func(channel string, times int) {
		op := w.Wrap(func(ctx context.Context) (any, error) {
			return nil, errors.New("x")
		}, OperationContext{Channel: channel, Kind: KindCollection})
		for i := 0; i < times; i++ {
			_, _ = op(context.Background())
		}
	}
	fail("todo:list", 5)
	fail("todo:create", 2)
	fail("config:get", 1)

	stats := w.Stats()
	require.NotEmpty(t, stats.WorstChannels)
	assert.Equal(t, "todo:list", stats.WorstChannels[0].Tag)
	assert.Equal(t, uint64(5), stats.WorstChannels[0].Count)
	require.NotNil(t, stats.LastError)
	assert.Equal(t, "config:get", stats.LastError.Channel)
}

func TestHealthCheck(t *testing.T) {
	w, _ := newTestWrapper(Policy{MaxRetries: 1})

	ok := w.Wrap(func(ctx context.Context) (any, error) {
		return true, nil
	}, OperationContext{Channel: "notify:send", Kind: KindBoolean})
	for i := 0; i < 100; i++ {
		_, _ = ok(context.Background())
	}
	assert.True(t, w.HealthCheck().Healthy)

	bad := w.Wrap(func(ctx context.Context) (any, error) {
		return nil, errors.New("down")
	}, OperationContext{Channel: "todo:list", Kind: KindCollection})
	for i := 0; i < 20; i++ {
		_, _ = bad(context.Background())
	}

	h := w.HealthCheck()
	assert.False(t, h.Healthy)
	assert.Less(t, h.SuccessRate, 0.95)
	require.NotEmpty(t, h.Recommendations)

	found := false
	for _, r := range h.Recommendations {
		if strings.Contains(r, "todo:list") {
			found = true
		}
	}
	assert.True(t, found, "recommendations must name the worst channel: %v", h.Recommendations)
}

func TestReset(t *testing.T) {
	w, _ := newTestWrapper(Policy{MaxRetries: 1})
	op := w.Wrap(func(ctx context.Context) (any, error) {
		return nil, errors.New("x")
	}, OperationContext{Channel: "todo:list", Kind: KindCollection})
	_, _ = op(context.Background())

	require.NotZero(t, w.Stats().TotalErrors)
	w.Reset()
	assert.Zero(t, w.Stats().TotalErrors)
	assert.Equal(t, 1.0, w.Stats().SuccessRate)
}
