package logger

import (
	"strconv"
	"strings"
	"sync"
)

// keyedSampler lets through numerator of every denominator events per key,
// so a flood of one update kind does not starve the debug lines of another.
type keyedSampler struct {
	mu       sync.Mutex
	num, den int
	seen     map[string]int
}

func newKeyedSampler(num, den int) *keyedSampler {
	s := &keyedSampler{}
	s.Set(num, den)
	return s
}

// Set changes the ratio and restarts every key. A non-positive side
// disables sampling: every event passes.
func (s *keyedSampler) Set(num, den int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	s.num, s.den = min(num, den), den
	s.seen = make(map[string]int)
}

// Allow reports whether the next event for key passes. The first num events
// of every window of den pass.
func (s *keyedSampler) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.den == 0 {
		return true
	}
	n := s.seen[key] % s.den
	s.seen[key] = n + 1
	return n < s.num
}

// parseRatioSpec reads "n/d" or "d" (meaning 1/d). Anything unparsable or
// non-positive yields 0, 0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if n, d, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(n))
		den, err2 := strconv.Atoi(strings.TrimSpace(d))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	if v, err := strconv.Atoi(spec); err == nil && v > 0 {
		return 1, v
	}
	return 0, 0
}
