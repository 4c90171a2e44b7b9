package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/redis/go-redis/v9"
)

// DefaultTallyKey is the Redis hash holding endpoint tallies
const DefaultTallyKey = "aigate:endpoint_stats"

// RedisEndpointTally implements account.EndpointTally on a single Redis hash.
// Each field is "METHOD path" and HINCRBY keeps updates atomic across instances.
type RedisEndpointTally struct {
	client *redis.Client
	key    string
}

// NewRedisEndpointTally creates a tally backed by the given client
func NewRedisEndpointTally(client *redis.Client, key string) *RedisEndpointTally {
	if key == "" {
		key = DefaultTallyKey
	}
	return &RedisEndpointTally{
		client: client,
		key:    key,
	}
}

// Record increments the tally for method and path
func (t *RedisEndpointTally) Record(ctx context.Context, method, path string) error {
	if err := t.client.HIncrBy(ctx, t.key, tallyField(method, path), 1).Err(); err != nil {
		return fmt.Errorf("failed to record endpoint tally: %w", err)
	}
	return nil
}

// List returns all tallies ordered by count descending
func (t *RedisEndpointTally) List(ctx context.Context) ([]account.EndpointStat, error) {
	fields, err := t.client.HGetAll(ctx, t.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoint tallies: %w", err)
	}
	return parseTally(fields)
}

func tallyField(method, path string) string {
	return method + " " + path
}

func parseTally(fields map[string]string) ([]account.EndpointStat, error) {
	stats := make([]account.EndpointStat, 0, len(fields))
	for field, raw := range fields {
		method, path, ok := strings.Cut(field, " ")
		if !ok {
			return nil, fmt.Errorf("malformed tally field %q", field)
		}
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed tally count for %q: %w", field, err)
		}
		stats = append(stats, account.EndpointStat{Method: method, Endpoint: path, Count: count})
	}
	SortEndpointStats(stats)
	return stats, nil
}

// SortEndpointStats orders by count descending, then method and path
func SortEndpointStats(stats []account.EndpointStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		if stats[i].Method != stats[j].Method {
			return stats[i].Method < stats[j].Method
		}
		return stats[i].Endpoint < stats[j].Endpoint
	})
}
