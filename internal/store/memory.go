package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no probe results exist for a station.
	ErrNotFound = errors.New("no probe results for station")
)

// ProbeResult is the recorded outcome of one upstream availability
// probe. It describes service health, not observation data: upstream
// observations are never cached here.
type ProbeResult struct {
	Station   string        `json:"station"`
	CheckedAt time.Time     `json:"checked_at"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency_ns"`
	Error     string        `json:"error,omitempty"`
}

// probeHistory holds a time-ordered list of probe results for a station.
type probeHistory struct {
	Results []ProbeResult
}

// MemoryStore is a concurrency-safe in-memory record of recent probe
// results, bounded by count and age.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station id, value: history
	data map[string]*probeHistory

	maxHistory int           // max number of results per station
	maxAge     time.Duration // optional max age for results
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*probeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveResult appends a probe result for its station and enforces retention.
func (s *MemoryStore) SaveResult(res ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[res.Station]
	if !ok {
		history = &probeHistory{}
		s.data[res.Station] = history
	}

	history.Results = append(history.Results, res)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results); i++ {
			if !history.Results[i].CheckedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Results) {
			history.Results = history.Results[i:]
		}
	}
}

// GetLatest returns the most recent probe result for a station.
func (s *MemoryStore) GetLatest(station string) (ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[station]
	if !ok || len(history.Results) == 0 {
		return ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// Recent returns all probe results for a station at or after since.
func (s *MemoryStore) Recent(station string, since time.Time) ([]ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[station]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}

	var result []ProbeResult
	for _, res := range history.Results {
		if !res.CheckedAt.Before(since) {
			result = append(result, res)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
