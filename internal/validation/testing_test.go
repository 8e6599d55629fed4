package validation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

func int64Ptr(v int64) *int64    { return &v }
func int16Ptr(v int16) *int16    { return &v }
func stringPtr(v string) *string { return &v }

// fakeProber answers from a fixed table; unknown URLs are valid
type fakeProber struct {
	mu      sync.Mutex
	invalid map[string]bool
	delays  map[string]time.Duration
	panicOn string
	calls   []string
}

func (p *fakeProber) Validate(ctx context.Context, url string) bool {
	p.mu.Lock()
	p.calls = append(p.calls, url)
	delay := p.delays[url]
	p.mu.Unlock()

	if url == p.panicOn {
		panic("prober exploded")
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}
	}
	return !p.invalid[url]
}

func (p *fakeProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// fakeLookup resolves ids against a fixed set
type fakeLookup struct {
	existing map[int64]bool
	err      error
	calls    atomic.Int32
	lastIDs  []int64
}

func (l *fakeLookup) FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	l.calls.Add(1)
	l.lastIDs = ids
	if l.err != nil {
		return nil, l.err
	}
	var found []int64
	for _, id := range ids {
		if l.existing[id] {
			found = append(found, id)
		}
	}
	return found, nil
}

type storageError struct{}

func (storageError) Error() string { return "connection refused" }

var errStorage = errors.New("storage down")
