package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/quizhive/mimir/internal/infra/redis"
	"github.com/quizhive/mimir/internal/models"
)

// ErrStatusNotFound is returned when no status is stored for a job ID
// (unknown job, or the status TTL expired).
var ErrStatusNotFound = errors.New("import status not found")

const statusKeyPrefix = "import_status:"

// StatusTracker records bulk-import progress in Redis so callers can poll
// a job after the import request has returned.
type StatusTracker struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewStatusTracker(redisClient *redis.Client, ttl time.Duration) *StatusTracker {
	return &StatusTracker{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func (t *StatusTracker) Update(ctx context.Context, jobID string, step models.Step) error {
	validSteps := map[models.Step]bool{
		models.StepReceived:       true,
		models.StepFingerprinting: true,
		models.StepChecking:       true,
		models.StepCompleted:      true,
		models.StepFailed:         true,
	}
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKeyPrefix + jobID

	err := t.redisClient.Set(ctx, rkey, string(step), t.ttl).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("jobId", jobID).
			Str("redisKey", rkey).
			Msg("Failed to update import status in Redis")
		return fmt.Errorf("failed to update import status in Redis: %w", err)
	}

	log.Trace().
		Str("jobId", jobID).
		Str("step", string(step)).
		Msg("Import status updated in Redis")

	return nil
}

func (t *StatusTracker) Get(ctx context.Context, jobID string) (models.Step, error) {
	value, err := t.redisClient.Get(ctx, statusKeyPrefix+jobID).Result()
	if err == goredis.Nil {
		return "", ErrStatusNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read import status from Redis: %w", err)
	}
	return models.Step(value), nil
}
