package models

import (
	"time"
)

// UploadRecord is the content-level dedup record for a raw collection
// upload. Uniqueness is (userId, digest): the same user may not submit an
// identical payload twice, while different users may. Records are
// insert-only and kept for the lifetime of the owning user.
type UploadRecord struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	Digest     string    `bson:"digest" json:"digest"`
	RawPayload string    `bson:"rawPayload" json:"-"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// UploadRequest carries the raw, unparsed collection payload. The digest
// is computed over Payload exactly as submitted.
type UploadRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// UploadResult reports an accepted upload and the per-item outcomes.
type UploadResult struct {
	UploadID string        `json:"uploadId"`
	Report   *ImportReport `json:"report"`
}
