package cache

import (
	"context"
	"sync"

	"github.com/aigate/backend/internal/domain/account"
)

type tallyKey struct {
	method string
	path   string
}

// InMemoryEndpointTally is a process-local account.EndpointTally.
// Counts are lost on restart and not shared between instances.
type InMemoryEndpointTally struct {
	mu     sync.Mutex
	counts map[tallyKey]int64
}

// NewInMemoryEndpointTally creates an empty tally
func NewInMemoryEndpointTally() *InMemoryEndpointTally {
	return &InMemoryEndpointTally{
		counts: make(map[tallyKey]int64),
	}
}

// Record increments the tally for method and path
func (t *InMemoryEndpointTally) Record(_ context.Context, method, path string) error {
	t.mu.Lock()
	t.counts[tallyKey{method: method, path: path}]++
	t.mu.Unlock()
	return nil
}

// List returns all tallies ordered by count descending
func (t *InMemoryEndpointTally) List(_ context.Context) ([]account.EndpointStat, error) {
	t.mu.Lock()
	stats := make([]account.EndpointStat, 0, len(t.counts))
	for k, count := range t.counts {
		stats = append(stats, account.EndpointStat{Method: k.method, Endpoint: k.path, Count: count})
	}
	t.mu.Unlock()

	SortEndpointStats(stats)
	return stats, nil
}
