package tts

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Stats keeps a rolling window of synthesis call latencies so the stats
// endpoint can report how the TTS backend is behaving. Samples older than
// maxAge fall out of every aggregate.
type Stats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []latency
}

type latency struct {
	at time.Time
	ms int64
}

// StatsSnapshot aggregates the samples currently inside the window.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		window:  maxAge,
		samples: make([]latency, 0, 256),
	}
}

// Record adds one synthesis latency. Negative durations count as zero.
func (s *Stats) Record(durationMs int64) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now)
	s.samples = append(s.samples, latency{at: now, ms: durationMs})
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now)

	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	sorted := make([]int64, len(s.samples))
	var sum int64
	for i, l := range s.samples {
		sorted[i] = l.ms
		sum += l.ms
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return StatsSnapshot{
		Count: len(sorted),
		MinMs: sorted[0],
		MaxMs: sorted[len(sorted)-1],
		AvgMs: float64(sum) / float64(len(sorted)),
		P50Ms: percentile(sorted, 50),
		P95Ms: percentile(sorted, 95),
		P99Ms: percentile(sorted, 99),
	}
}

// expire drops samples older than the window. Samples append in time order,
// so the survivors are a suffix.
func (s *Stats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	first := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].at.Before(cutoff)
	})
	if first > 0 {
		s.samples = append(s.samples[:0], s.samples[first:]...)
	}
}

// percentile interpolates linearly between the two nearest ranks of an
// ascending slice.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := math.Max(0, math.Min(pct, 100)) / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[len(sorted)-1])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*(float64(sorted[lo+1])-float64(sorted[lo]))
}
