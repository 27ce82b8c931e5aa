package model

import "sync"

// Window is an insertion-ordered buffer of turns that keeps at most
// capacity entries, dropping the oldest first. A capacity of 0 is unbounded.
// Window is safe for concurrent use.
type Window struct {
	mu       sync.RWMutex
	capacity int
	turns    []Turn
}

// NewWindow creates a window with the given capacity.
func NewWindow(capacity int) *Window {
	return &Window{capacity: capacity}
}

// Append adds turns in order, evicting the oldest beyond capacity.
func (w *Window) Append(turns ...Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = append(w.turns, turns...)
	w.trim()
}

// Replace discards the current contents and loads turns.
func (w *Window) Replace(turns []Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = make([]Turn, len(turns))
	copy(w.turns, turns)
	w.trim()
}

// Last returns a copy of the newest n turns in chronological order.
func (w *Window) Last(n int) []Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if n <= 0 {
		return []Turn{}
	}
	start := len(w.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(w.turns)-start)
	copy(out, w.turns[start:])
	return out
}

// All returns a copy of every turn.
func (w *Window) All() []Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Len returns the number of turns held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.turns)
}

// Reset empties the window.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = nil
}

func (w *Window) trim() {
	if w.capacity > 0 && len(w.turns) > w.capacity {
		kept := make([]Turn, w.capacity)
		copy(kept, w.turns[len(w.turns)-w.capacity:])
		w.turns = kept
	}
}
