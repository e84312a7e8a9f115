package reliability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/taskdesk/taskdesk/internal/sched"
)

// Kind is the closed set of operation shapes; it selects the degradation
// policy once retries are exhausted.
type Kind int

const (
	// KindCollection operations return a collection; they degrade to an
	// empty one.
	KindCollection Kind = iota
	// KindMutation covers create/update-style operations; they degrade
	// to a nil result.
	KindMutation
	// KindDeletion operations degrade to a structured failure result
	// carrying the error message.
	KindDeletion
	// KindBoolean covers notification and window operations; they
	// degrade to false.
	KindBoolean
	// KindGeneric operations degrade to the context's fallback value.
	KindGeneric
)

// String returns the wire spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindMutation:
		return "mutation"
	case KindDeletion:
		return "deletion"
	case KindBoolean:
		return "boolean"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// OperationContext identifies one wrapped call site. Immutable per site.
type OperationContext struct {
	// Channel names the operation for statistics and diagnostics.
	Channel string
	// Kind selects the degradation policy.
	Kind Kind
	// Fallback is returned for KindGeneric degradation.
	Fallback any
	// DisableDegradation re-throws the last error instead of degrading.
	DisableDegradation bool
}

// DeletionResult is the degraded outcome of a deletion: a structured
// failure instead of a raised error.
type DeletionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Operation is a fallible call wrapped by the reliability layer.
type Operation func(ctx context.Context) (any, error)

// Options configures a Wrapper.
type Options struct {
	Policy    Policy
	Scheduler sched.Scheduler
	Logger    *slog.Logger
}

// Wrapper makes operations resilient to transient failure. All counters
// are updated under one lock so statistics never expose a partial update.
type Wrapper struct {
	policy Policy
	clock  sched.Scheduler
	logger *slog.Logger

	mu    sync.Mutex
	stats counters
}

// New creates a Wrapper. Zero option fields fall back to the default
// policy, the wall clock, and the default logger.
func New(opts Options) *Wrapper {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Scheduler
	if clock == nil {
		clock = sched.New()
	}
	return &Wrapper{
		policy: opts.Policy.normalized(),
		clock:  clock,
		logger: logger,
	}
}

// Wrap returns op guarded by retry, backoff, and degradation. When
// degradation is enabled no error from op ever escapes the returned
// operation; with degradation disabled exactly the last attempt's error
// propagates. A cancelled context aborts the backoff wait and surfaces
// ctx.Err() without degradation; the caller is gone either way.
func (w *Wrapper) Wrap(op Operation, opCtx OperationContext) Operation {
	return func(ctx context.Context) (any, error) {
		invocation := uuid.NewString()

		var lastErr error
		for attempt := 1; attempt <= w.policy.MaxRetries; attempt++ {
			result, err := op(ctx)
			if err == nil {
				w.recordSuccess(attempt > 1)
				return result, nil
			}
			lastErr = err
			w.recordError(opCtx.Channel, invocation, err)

			if IsPermanent(err) {
				// Structural failure: retrying cannot help.
				w.recordExhausted()
				return nil, err
			}
			if ctx.Err() != nil {
				w.recordExhausted()
				return nil, ctx.Err()
			}

			if attempt < w.policy.MaxRetries {
				delay := w.policy.Backoff(attempt)
				w.logger.Debug("operation failed, retrying",
					"channel", opCtx.Channel,
					"invocation", invocation,
					"attempt", attempt,
					"delay", delay,
					"error", err)
				if serr := w.clock.Sleep(ctx, delay); serr != nil {
					w.recordExhausted()
					return nil, serr
				}
			}
		}

		w.recordExhausted()
		if opCtx.DisableDegradation {
			return nil, lastErr
		}

		w.recordDegraded()
		w.logger.Warn("operation degraded after exhausting retries",
			"channel", opCtx.Channel,
			"invocation", invocation,
			"kind", opCtx.Kind.String(),
			"error", lastErr)
		return degradedValue(opCtx, lastErr), nil
	}
}

// degradedValue chooses the safe default for an exhausted operation.
func degradedValue(opCtx OperationContext, lastErr error) any {
	switch opCtx.Kind {
	case KindCollection:
		return []any{}
	case KindMutation:
		return nil
	case KindDeletion:
		msg := ""
		if lastErr != nil {
			msg = lastErr.Error()
		}
		return DeletionResult{Success: false, Error: msg}
	case KindBoolean:
		return false
	case KindGeneric:
		return opCtx.Fallback
	default:
		return opCtx.Fallback
	}
}
