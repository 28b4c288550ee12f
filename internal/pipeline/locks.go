package pipeline

import "sync"

// lockArena serializes runs per project. At most one in-flight run may
// hold a project's slot at a time.
type lockArena struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newLockArena() *lockArena {
	return &lockArena{inFlight: map[string]struct{}{}}
}

// tryAcquire claims the project's slot, reporting false when a run is
// already in flight.
func (a *lockArena) tryAcquire(projectID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inFlight[projectID]; busy {
		return false
	}
	a.inFlight[projectID] = struct{}{}
	return true
}

func (a *lockArena) release(projectID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, projectID)
}
