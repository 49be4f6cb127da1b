package brief

import (
	"math"
	"sync"
)

// CompletionTracker holds the user-confirmed flag of each requirement category
type CompletionTracker struct {
	mu         sync.RWMutex
	categories []string
	flags      map[string]bool
}

// NewCompletionTracker tracks the given categories, all unchecked
func NewCompletionTracker(categories []string) *CompletionTracker {
	t := &CompletionTracker{
		categories: append([]string(nil), categories...),
		flags:      make(map[string]bool, len(categories)),
	}
	for _, c := range categories {
		t.flags[c] = false
	}
	return t
}

// Set overwrites the flag of one category
func (t *CompletionTracker) Set(name string, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags[name] = completed
}

// IsComplete reports whether every tracked category is checked; an empty set is complete
func (t *CompletionTracker) IsComplete() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.categories {
		if !t.flags[c] {
			return false
		}
	}
	return true
}

// Flags returns a copy of all flags
func (t *CompletionTracker) Flags() map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]bool, len(t.flags))
	for k, v := range t.flags {
		out[k] = v
	}
	return out
}

// Progress returns the rounded percentage of checked tracked categories
func (t *CompletionTracker) Progress() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.categories) == 0 {
		return 0
	}
	done := 0
	for _, c := range t.categories {
		if t.flags[c] {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(t.categories))))
}

// Restore replaces the flags with stored ones. Tracked categories missing
// from flags are unchecked; extra keys are kept.
func (t *CompletionTracker) Restore(flags map[string]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags = make(map[string]bool, len(t.categories)+len(flags))
	for _, c := range t.categories {
		t.flags[c] = false
	}
	for k, v := range flags {
		t.flags[k] = v
	}
}
