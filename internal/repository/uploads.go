package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quizhive/mimir/internal/dedup"
	"github.com/quizhive/mimir/internal/models"
)

const uploadsCollection = "uploads"

type UploadsRepository struct {
	mongoRepo *MongoRepository
}

func NewUploadsRepository(mongoRepo *MongoRepository) *UploadsRepository {
	return &UploadsRepository{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes creates the unique (userId, digest) index. The uniqueness
// invariant lives at the storage layer so that two concurrent identical
// uploads degrade to a rejected second insert, never duplicated data.
func (r *UploadsRepository) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "digest", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}

	_, err := r.mongoRepo.GetCollection(uploadsCollection).Indexes().CreateOne(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to create uploads index: %w", err)
	}

	return nil
}

func (r *UploadsRepository) FindUpload(ctx context.Context, userID, digest string) (*models.UploadRecord, error) {
	filter := bson.M{"userId": userID, "digest": digest}

	var record models.UploadRecord
	err := r.mongoRepo.FindOne(ctx, uploadsCollection, filter).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find upload record: %w", err)
	}

	return &record, nil
}

func (r *UploadsRepository) InsertUpload(ctx context.Context, record *models.UploadRecord) error {
	err := r.mongoRepo.InsertOne(ctx, uploadsCollection, record)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("upload digest already recorded: %w", dedup.ErrDuplicateUpload)
	}
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}

	return nil
}
