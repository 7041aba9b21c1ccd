// Package timing turns compile lifecycle events into duration statistics
// and prints them as tables.
package timing

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Stats holds duration samples for one name, in seconds.
type Stats struct {
	samples []float64
}

func (s *Stats) add(d time.Duration) {
	s.samples = append(s.samples, d.Seconds())
}

// Count returns the number of samples.
func (s *Stats) Count() int { return len(s.samples) }

// Sum returns the total of all samples.
func (s *Stats) Sum() float64 {
	total := 0.0
	for _, v := range s.samples {
		total += v
	}
	return total
}

// Avg returns the mean, or 0 without samples.
func (s *Stats) Avg() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s.samples))
}

// Min returns the smallest sample, or 0 without samples.
func (s *Stats) Min() float64 { return s.Quantile(0) }

// Max returns the largest sample, or 0 without samples.
func (s *Stats) Max() float64 { return s.Quantile(1) }

// Quantile returns the q-quantile (0 <= q <= 1), interpolating linearly
// between the two closest ranks.
func (s *Stats) Quantile(q float64) float64 {
	if len(s.samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), s.samples...)
	sort.Float64s(sorted)

	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(idx-float64(lo))
}

// Summary maps names (filters, phases, stages, rules) to their stats.
//
// Thread-safety: safe for concurrent use.
type Summary struct {
	mu    sync.Mutex
	stats map[string]*Stats
}

func newSummary() *Summary {
	return &Summary{stats: make(map[string]*Stats)}
}

func (s *Summary) add(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[name]
	if !ok {
		st = &Stats{}
		s.stats[name] = st
	}
	st.add(d)
}

// Get returns the stats for name, or nil when nothing was recorded.
func (s *Summary) Get(name string) *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[name]
	if !ok {
		return nil
	}
	return &Stats{samples: append([]float64(nil), st.samples...)}
}

// Names returns the recorded names, sorted.
func (s *Summary) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.stats))
	for n := range s.stats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether nothing was recorded.
func (s *Summary) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stats) == 0
}
