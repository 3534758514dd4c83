package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const confirmKeyPrefix = "confirm:"

// consumeScript deletes the key only when it holds the presented token.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// ConfirmationRepository stores delete confirmation tokens in Redis under
// "confirm:<entity>:<id>".
type ConfirmationRepository struct {
	client *redis.Client
}

// NewConfirmationRepository creates a new Redis-backed confirmation store.
func NewConfirmationRepository(client *redis.Client) *ConfirmationRepository {
	return &ConfirmationRepository{client: client}
}

func confirmKey(entity, id string) string {
	return confirmKeyPrefix + entity + ":" + id
}

// Issue stores token for the entity, replacing any pending one.
func (r *ConfirmationRepository) Issue(ctx context.Context, entity, id, token string, ttl time.Duration) error {
	if err := r.client.Set(ctx, confirmKey(entity, id), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set confirmation: %w", err)
	}
	return nil
}

// Consume atomically checks and deletes the token. A mismatched token leaves
// the pending one in place.
func (r *ConfirmationRepository) Consume(ctx context.Context, entity, id, token string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{confirmKey(entity, id)}, token).Int()
	if err != nil {
		return false, fmt.Errorf("redis consume confirmation: %w", err)
	}
	return n == 1, nil
}
