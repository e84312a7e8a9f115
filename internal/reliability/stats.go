package reliability

import (
	"fmt"
	"sort"
	"time"
)

// ErrorRecord captures the most recent failure for diagnostics.
type ErrorRecord struct {
	Channel    string    `json:"channel"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Invocation string    `json:"invocation"`
	Time       time.Time `json:"time"`
}

type counters struct {
	totalInvocations uint64
	succeeded        uint64
	totalErrors      uint64
	retried          uint64
	failed           uint64
	degraded         uint64
	errorsByType     map[string]uint64
	errorsByChannel  map[string]uint64
	lastError        *ErrorRecord
}

// TagCount pairs a statistics tag with its count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count uint64 `json:"count"`
}

// Stats is a point-in-time snapshot of the wrapper's counters plus the
// derived success rate and the dominant error tags.
type Stats struct {
	TotalInvocations   uint64            `json:"total_invocations"`
	TotalErrors        uint64            `json:"total_errors"`
	RetriedOperations  uint64            `json:"retried_operations"`
	FailedOperations   uint64            `json:"failed_operations"`
	DegradedOperations uint64            `json:"degraded_operations"`
	SuccessRate        float64           `json:"success_rate"`
	ErrorsByType       map[string]uint64 `json:"errors_by_type"`
	ErrorsByChannel    map[string]uint64 `json:"errors_by_channel"`
	TopErrorTypes      []TagCount        `json:"top_error_types,omitempty"`
	WorstChannels      []TagCount        `json:"worst_channels,omitempty"`
	LastError          *ErrorRecord      `json:"last_error,omitempty"`
}

// Health is the wrapper's self-assessment for operators.
type Health struct {
	Healthy         bool     `json:"healthy"`
	SuccessRate     float64  `json:"success_rate"`
	TotalErrors     uint64   `json:"total_errors"`
	Recommendations []string `json:"recommendations,omitempty"`
}

func (w *Wrapper) recordSuccess(afterRetry bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.totalInvocations++
	w.stats.succeeded++
	if afterRetry {
		w.stats.retried++
	}
}

func (w *Wrapper) recordExhausted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.totalInvocations++
	w.stats.failed++
}

func (w *Wrapper) recordDegraded() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.degraded++
}

func (w *Wrapper) recordError(channel, invocation string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stats.errorsByType == nil {
		w.stats.errorsByType = map[string]uint64{}
	}
	if w.stats.errorsByChannel == nil {
		w.stats.errorsByChannel = map[string]uint64{}
	}

	kind := errorType(err)
	w.stats.totalErrors++
	w.stats.errorsByType[kind]++
	w.stats.errorsByChannel[channel]++
	w.stats.lastError = &ErrorRecord{
		Channel:    channel,
		Type:       kind,
		Message:    err.Error(),
		Invocation: invocation,
		Time:       w.clock.Now(),
	}
}

// Stats returns a snapshot of the counters. The maps are copies.
func (w *Wrapper) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := Stats{
		TotalInvocations:   w.stats.totalInvocations,
		TotalErrors:        w.stats.totalErrors,
		RetriedOperations:  w.stats.retried,
		FailedOperations:   w.stats.failed,
		DegradedOperations: w.stats.degraded,
		SuccessRate:        w.successRateLocked(),
		ErrorsByType:       copyCounts(w.stats.errorsByType),
		ErrorsByChannel:    copyCounts(w.stats.errorsByChannel),
		TopErrorTypes:      topCounts(w.stats.errorsByType, 3),
		WorstChannels:      topCounts(w.stats.errorsByChannel, 3),
	}
	if w.stats.lastError != nil {
		rec := *w.stats.lastError
		out.LastError = &rec
	}
	return out
}

// Reset clears all counters. Statistics accumulate for the process
// lifetime unless an operator explicitly asks for a reset.
func (w *Wrapper) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats = counters{}
}

// HealthCheck flags the wrapper unhealthy when the success rate drops
// below 95% or more than 100 errors have accumulated, and names the most
// error-prone channel in its recommendations.
func (w *Wrapper) HealthCheck() Health {
	w.mu.Lock()
	defer w.mu.Unlock()

	h := Health{
		SuccessRate: w.successRateLocked(),
		TotalErrors: w.stats.totalErrors,
		Healthy:     true,
	}

	if h.SuccessRate < 0.95 {
		h.Healthy = false
		h.Recommendations = append(h.Recommendations,
			fmt.Sprintf("success rate %.1f%% is below 95%%; inspect recent failures", h.SuccessRate*100))
	}
	if w.stats.totalErrors > 100 {
		h.Healthy = false
		h.Recommendations = append(h.Recommendations,
			fmt.Sprintf("%d accumulated errors; consider restarting the affected subsystem", w.stats.totalErrors))
	}
	if !h.Healthy {
		if worst := topCounts(w.stats.errorsByChannel, 1); len(worst) > 0 {
			h.Recommendations = append(h.Recommendations,
				fmt.Sprintf("channel %q is failing most often (%d errors)", worst[0].Tag, worst[0].Count))
		}
	}
	return h
}

func (w *Wrapper) successRateLocked() float64 {
	if w.stats.totalInvocations == 0 {
		return 1
	}
	return float64(w.stats.succeeded) / float64(w.stats.totalInvocations)
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func topCounts(in map[string]uint64, n int) []TagCount {
	out := make([]TagCount, 0, len(in))
	for k, v := range in {
		out = append(out, TagCount{Tag: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
