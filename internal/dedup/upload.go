package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quizhive/mimir/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrDuplicateUpload is returned when a user resubmits a payload they have
// already uploaded.
var ErrDuplicateUpload = errors.New("duplicate upload")

// UploadStore is the storage contract for upload digests. FindUpload
// returns (nil, nil) when no record exists. InsertUpload must be backed by
// a unique index on (userId, digest) and return ErrDuplicateUpload
// (wrapped or not) when that index rejects the insert, so the worst case
// for two concurrent identical uploads is a rejected second insert.
type UploadStore interface {
	FindUpload(ctx context.Context, userID, digest string) (*models.UploadRecord, error)
	InsertUpload(ctx context.Context, record *models.UploadRecord) error
}

// PayloadDigest computes the content-level digest of a raw upload
// payload: SHA-256 over the payload exactly as submitted, lowercase hex.
func PayloadDigest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Checker rejects re-submission of an identical raw payload by the same
// user before any per-item fingerprinting runs.
type Checker struct {
	store UploadStore
}

func NewChecker(store UploadStore) *Checker {
	return &Checker{store: store}
}

// CheckAndRecord digests the raw payload and looks up (userID, digest).
// If a record exists it is returned together with ErrDuplicateUpload; the
// whole upload, not a specific item, is the repeat. Otherwise the record
// is inserted before any downstream item processing. When a concurrent
// identical upload wins the insert, the winner's record is returned with
// ErrDuplicateUpload.
func (c *Checker) CheckAndRecord(ctx context.Context, userID, raw string) (*models.UploadRecord, error) {
	digest := PayloadDigest(raw)

	existing, err := c.store.FindUpload(ctx, userID, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to look up upload digest: %w", err)
	}
	if existing != nil {
		log.Debug().
			Str("userId", userID).
			Str("digest", digest).
			Str("uploadId", existing.ID).
			Msg("Rejected repeated upload payload")
		return existing, ErrDuplicateUpload
	}

	record := &models.UploadRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Digest:     digest,
		RawPayload: raw,
		CreatedAt:  time.Now(),
	}

	if err := c.store.InsertUpload(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateUpload) {
			// Lost the race against a concurrent identical upload; report
			// the winner's record.
			winner, findErr := c.store.FindUpload(ctx, userID, digest)
			if findErr == nil && winner != nil {
				return winner, ErrDuplicateUpload
			}
			return nil, ErrDuplicateUpload
		}
		return nil, fmt.Errorf("failed to record upload digest: %w", err)
	}

	return record, nil
}
