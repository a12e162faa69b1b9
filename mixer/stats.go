package mixer

import "time"

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// RenderStats summarizes how long render passes took.
type RenderStats struct {
	Renders uint64
	Last    time.Duration
	Max     time.Duration
	Total   time.Duration
}

func (s *RenderStats) record(d time.Duration) {
	s.Renders++
	s.Last = d
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
}

// Average returns the mean render duration.
func (s RenderStats) Average() time.Duration {
	if s.Renders == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Renders)
}
