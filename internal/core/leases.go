package core

// leases.go implements concurrency control for load runs.
//
// EntityLeases gives a run exclusive use of its entity inside this process:
// a second run of the same entity fails fast with ErrLoadInProgress instead
// of queueing behind the first. Runs in other processes are serialized by
// the advisory lock taken inside the run transaction.
//
// UploadLimiter caps how many web uploads are processed at once. When all
// slots are occupied, new requests wait up to maxWait before failing with
// ErrTooManyUploads.

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// EntityLeases tracks which entities currently have a run in progress.
type EntityLeases struct {
	mu     sync.Mutex
	active map[string]time.Time
}

func NewEntityLeases() *EntityLeases {
	return &EntityLeases{active: make(map[string]time.Time)}
}

// TryAcquire takes the lease for entity. It returns ErrLoadInProgress when
// another run holds it. On success the caller MUST call the returned release
// func exactly once (use defer).
func (l *EntityLeases) TryAcquire(entity string) (release func(), err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[entity]; busy {
		return nil, ErrLoadInProgress
	}
	l.active[entity] = time.Now()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, entity)
			l.mu.Unlock()
		})
	}, nil
}

// Active returns the entities with a run in progress, sorted.
func (l *EntityLeases) Active() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.active))
	for name := range l.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrTooManyUploads is returned when all upload slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many uploads in progress, please try again later")

// DefaultMaxConcurrentUploads is the default limit for parallel uploads.
const DefaultMaxConcurrentUploads = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// UploadLimiter controls concurrent upload processing using a semaphore.
type UploadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration
}

// NewUploadLimiter creates a limiter that allows at most maxConcurrent simultaneous uploads.
// Requests that cannot acquire a slot within maxWait will receive ErrTooManyUploads.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &UploadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for an upload slot.
// Returns nil on success, ErrTooManyUploads if the wait times out, or the
// context error if ctx ends first. The caller MUST call Release() afterwards.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrTooManyUploads
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a previously acquired slot.
func (l *UploadLimiter) Release() {
	<-l.semaphore
}

// Active returns the number of uploads being processed.
func (l *UploadLimiter) Active() int {
	return len(l.semaphore)
}

// WaitForDrain blocks until all active uploads complete or context is cancelled.
// Used for graceful shutdown to ensure uploads finish before termination.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
