package gps

import "sync"

// Registry holds the best fix seen so far and arbitrates between the
// sampling loop (Publish) and the capture loop (Snapshot). The mutex is
// held only for the compare-and-replace or copy-out, never across I/O.
type Registry struct {
	mu   sync.Mutex
	held *Fix
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Publish offers a candidate fix. The candidate replaces the held fix when
// its quality is greater than or equal to the held quality, so ties go to
// the most recent reading. Returns true if the candidate was accepted.
func (r *Registry) Publish(candidate Fix) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.held != nil && candidate.Quality < r.held.Quality {
		return false
	}
	c := candidate
	r.held = &c
	return true
}

// Snapshot returns a copy of the held fix. The second return is false if
// nothing has been published since creation or the last Reset.
func (r *Registry) Snapshot() (Fix, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.held == nil {
		return Fix{}, false
	}
	return *r.held, true
}

// Reset clears the held fix so a stale position does not keep being
// stamped onto photos after the receiver loses lock.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held = nil
}
