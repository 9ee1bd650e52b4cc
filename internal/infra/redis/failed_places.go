package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FailedPlace records a place whose fetch failed during a run, for
// operator triage and next-run inspection.
type FailedPlace struct {
	Place      string    `json:"place"`
	CountryISO string    `json:"country_iso"`
	RunID      string    `json:"run_id"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}

// FailedPlaceRepo stores failed places in Redis.
type FailedPlaceRepo struct {
	rdb *redis.Client
}

// NewFailedPlaceRepo creates a Redis-backed failed place repository.
func NewFailedPlaceRepo(client *Client) *FailedPlaceRepo {
	return &FailedPlaceRepo{rdb: client.rdb}
}

func failedPlaceKey(place string) string {
	return fmt.Sprintf("failed_place:%s", place)
}

const failedQueueKey = "failed_places"

// Add records a failed place. The entry expires after a day; the
// sorted set is scored by failure time so the oldest surface first.
func (r *FailedPlaceRepo) Add(ctx context.Context, fp FailedPlace) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("failed to marshal failed place: %w", err)
	}

	if err := r.rdb.Set(ctx, failedPlaceKey(fp.Place), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set failed place: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, failedQueueKey, redis.Z{
		Score:  float64(fp.FailedAt.Unix()),
		Member: fp.Place,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}
	return nil
}

// List returns all recorded failed places, oldest first. Entries whose
// detail key expired are pruned from the queue.
func (r *FailedPlaceRepo) List(ctx context.Context) ([]FailedPlace, error) {
	names, err := r.rdb.ZRange(ctx, failedQueueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	var failed []FailedPlace
	for _, name := range names {
		data, err := r.rdb.Get(ctx, failedPlaceKey(name)).Bytes()
		if err == redis.Nil {
			r.rdb.ZRem(ctx, failedQueueKey, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get failed place: %w", err)
		}

		var fp FailedPlace
		if err := json.Unmarshal(data, &fp); err != nil {
			return nil, fmt.Errorf("unmarshal failed place: %w", err)
		}
		failed = append(failed, fp)
	}
	return failed, nil
}

// Remove clears a place after a successful fetch.
func (r *FailedPlaceRepo) Remove(ctx context.Context, place string) error {
	if err := r.rdb.ZRem(ctx, failedQueueKey, place).Err(); err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}
	if err := r.rdb.Del(ctx, failedPlaceKey(place)).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}
