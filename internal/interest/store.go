// Package interest tracks how often the user has shown interest in each tag
// and persists those observations to a flat JSON document.
package interest

import (
	"sort"
	"strconv"
	"sync"
)

// Store keeps tag observation counts for one profile file.
// A tag absent from the map has count 0.
type Store struct {
	mu           sync.RWMutex
	source       string
	observations map[string]int
	dirty        bool // true if observations changed since last save
}

// TagWeight is one entry of a ranked weight listing.
type TagWeight struct {
	Tag    string  `json:"tag"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// New creates an empty store backed by source. Nothing is read from disk.
func New(source string) *Store {
	return &Store{source: source, observations: map[string]int{}}
}

// Source returns the path of the backing file.
func (s *Store) Source() string {
	return s.source
}

// Record adds one observation of tag. Any string is accepted.
func (s *Store) Record(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations[tag]++
	s.dirty = true
}

// Count returns the number of observations of tag.
func (s *Store) Count(tag string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observations[tag]
}

// Has reports whether tag has ever been recorded.
func (s *Store) Has(tag string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.observations[tag]
	return ok
}

// Total returns the sum of all counts.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalUnlocked()
}

func (s *Store) totalUnlocked() int {
	total := 0
	for _, c := range s.observations {
		total += c
	}
	return total
}

// Len returns the number of distinct tags.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observations)
}

// Observations returns a copy of the tag counts.
func (s *Store) Observations() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.observations))
	for tag, c := range s.observations {
		out[tag] = c
	}
	return out
}

// Weights returns each tag's share of all observations rounded to 3 decimals.
// The map is empty when nothing has been observed.
func (s *Store) Weights() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weights := make(map[string]float64, len(s.observations))
	total := s.totalUnlocked()
	if total == 0 {
		return weights
	}
	for tag, c := range s.observations {
		weights[tag] = round3(float64(c) / float64(total))
	}
	return weights
}

// TopWeights returns the n heaviest tags, ties broken by tag. n <= 0 returns all.
func (s *Store) TopWeights(n int) []TagWeight {
	weights := s.Weights()
	counts := s.Observations()

	out := make([]TagWeight, 0, len(weights))
	for tag, w := range weights {
		out = append(out, TagWeight{Tag: tag, Count: counts[tag], Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// IsDirty returns true if there are observations not yet saved.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// round3 rounds through the shortest correctly rounded decimal form, so exact
// binary halves go to even (0.0625 -> 0.062) and near-halves follow their true
// value (0.0005 is slightly above half and becomes 0.001).
func round3(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 3, 64), 64)
	return r
}
