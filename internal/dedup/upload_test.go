package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhive/mimir/internal/models"
)

type fakeUploadStore struct {
	records   map[string]*models.UploadRecord // userID + "\x00" + digest
	findErr   error
	insertErr error
}

func newFakeUploadStore() *fakeUploadStore {
	return &fakeUploadStore{records: make(map[string]*models.UploadRecord)}
}

func (s *fakeUploadStore) key(userID, digest string) string {
	return userID + "\x00" + digest
}

func (s *fakeUploadStore) FindUpload(_ context.Context, userID, digest string) (*models.UploadRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.records[s.key(userID, digest)], nil
}

func (s *fakeUploadStore) InsertUpload(_ context.Context, record *models.UploadRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	k := s.key(record.UserID, record.Digest)
	if _, exists := s.records[k]; exists {
		return fmt.Errorf("unique index violation: %w", ErrDuplicateUpload)
	}
	s.records[k] = record
	return nil
}

func TestPayloadDigest(t *testing.T) {
	raw := `[{"question":"What is 2+2?"}]`
	sum := sha256.Sum256([]byte(raw))

	digest := PayloadDigest(raw)
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, PayloadDigest(raw))
	assert.NotEqual(t, digest, PayloadDigest(raw+" "))
}

func TestCheckAndRecordAcceptsFirstUpload(t *testing.T) {
	store := newFakeUploadStore()
	checker := NewChecker(store)

	record, err := checker.CheckAndRecord(context.Background(), "user-1", "payload")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, PayloadDigest("payload"), record.Digest)
	assert.Equal(t, "payload", record.RawPayload)
	assert.NotEmpty(t, record.ID)
}

func TestCheckAndRecordRejectsSameUserRepeat(t *testing.T) {
	store := newFakeUploadStore()
	checker := NewChecker(store)

	first, err := checker.CheckAndRecord(context.Background(), "user-1", "payload")
	require.NoError(t, err)

	second, err := checker.CheckAndRecord(context.Background(), "user-1", "payload")
	require.ErrorIs(t, err, ErrDuplicateUpload)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID, "conflict must name the existing upload")
}

func TestCheckAndRecordAllowsCrossUserCollision(t *testing.T) {
	store := newFakeUploadStore()
	checker := NewChecker(store)

	_, err := checker.CheckAndRecord(context.Background(), "user-1", "payload")
	require.NoError(t, err)

	record, err := checker.CheckAndRecord(context.Background(), "user-2", "payload")
	require.NoError(t, err)
	assert.Equal(t, "user-2", record.UserID)
}

func TestCheckAndRecordLosesInsertRace(t *testing.T) {
	store := newFakeUploadStore()
	checker := NewChecker(store)

	// A concurrent upload wins between the lookup and the insert.
	winner := &models.UploadRecord{
		ID:     "winner",
		UserID: "user-1",
		Digest: PayloadDigest("payload"),
	}
	store.insertErr = fmt.Errorf("unique index violation: %w", ErrDuplicateUpload)
	store.records[store.key("user-1", winner.Digest)] = nil // lookup sees nothing

	record, err := checker.CheckAndRecord(context.Background(), "user-1", "payload")
	require.ErrorIs(t, err, ErrDuplicateUpload)
	assert.Nil(t, record)

	// Once the winner is visible, the conflict names it.
	store.records[store.key("user-1", winner.Digest)] = winner
	record, err = checker.CheckAndRecord(context.Background(), "user-1", "payload")
	require.ErrorIs(t, err, ErrDuplicateUpload)
	require.NotNil(t, record)
	assert.Equal(t, "winner", record.ID)
}

func TestCheckAndRecordPropagatesStorageErrors(t *testing.T) {
	store := newFakeUploadStore()
	store.findErr = errors.New("mongo unavailable")
	checker := NewChecker(store)

	record, err := checker.CheckAndRecord(context.Background(), "user-1", "payload")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateUpload)
	assert.Nil(t, record)
}
