package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quizhive/mimir/internal/dedup"
	"github.com/quizhive/mimir/internal/models"
)

const questionsCollection = "questions"

// ErrNotFound is returned when an update or delete targets a question
// that does not exist.
var ErrNotFound = errors.New("question not found")

type QuestionsRepository struct {
	mongoRepo *MongoRepository
}

func NewQuestionsRepository(mongoRepo *MongoRepository) *QuestionsRepository {
	return &QuestionsRepository{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes creates the compound index backing the scoped candidate
// lookup: exact scope (user, category, subcategory) plus exact bucket.
func (r *QuestionsRepository) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "category", Value: 1},
			{Key: "subcategory", Value: 1},
			{Key: "bucket", Value: 1},
		},
	}

	_, err := r.mongoRepo.GetCollection(questionsCollection).Indexes().CreateOne(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to create questions index: %w", err)
	}

	return nil
}

func (r *QuestionsRepository) InsertQuestion(ctx context.Context, question *models.Question) error {
	question.CreatedAt = time.Now()
	question.UpdatedAt = question.CreatedAt

	if err := r.mongoRepo.InsertOne(ctx, questionsCollection, question); err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	return nil
}

// UpdateQuestion persists the question's editable fields together with its
// recomputed fingerprint and bucket. The two always travel together so a
// stored fingerprint can never go stale relative to its source fields.
func (r *QuestionsRepository) UpdateQuestion(ctx context.Context, question *models.Question) error {
	question.UpdatedAt = time.Now()

	filter := bson.M{"_id": question.ID, "userId": question.UserID}
	update := bson.M{"$set": bson.M{
		"category":         question.Category,
		"subcategory":      question.Subcategory,
		"question":         question.Question,
		"correctAnswer":    question.CorrectAnswer,
		"incorrectAnswers": question.IncorrectAnswers,
		"fingerprint":      question.Fingerprint,
		"bucket":           question.Bucket,
		"updatedAt":        question.UpdatedAt,
	}}

	result, err := r.mongoRepo.UpdateOne(ctx, questionsCollection, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *QuestionsRepository) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	filter := bson.M{"_id": id}

	var question models.Question
	err := r.mongoRepo.FindOne(ctx, questionsCollection, filter).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find question: %w", err)
	}

	return &question, nil
}

func (r *QuestionsRepository) DeleteQuestion(ctx context.Context, userID, id string) error {
	filter := bson.M{"_id": id, "userId": userID}

	result, err := r.mongoRepo.DeleteOne(ctx, questionsCollection, filter)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// FindCandidates returns duplicate candidates sharing the exact scope and
// bucket, projected down to the fields the policy compares. A scope with
// no stored questions yields an empty slice.
func (r *QuestionsRepository) FindCandidates(ctx context.Context, scope dedup.Scope, bucket uint8, excludeID string) ([]dedup.Candidate, error) {
	filter := bson.M{
		"userId":      scope.UserID,
		"category":    scope.Category,
		"subcategory": scope.Subcategory,
		"bucket":      int32(bucket),
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	cursor, err := r.mongoRepo.FindMany(ctx, questionsCollection, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []*models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode duplicate candidates: %w", err)
	}

	candidates := make([]dedup.Candidate, 0, len(questions))
	for _, q := range questions {
		candidates = append(candidates, dedup.Candidate{
			ID:        q.ID,
			Text:      dedup.ComparisonText(q.Question, q.CorrectAnswer, q.IncorrectAnswers),
			Signature: q.Fingerprint,
		})
	}

	return candidates, nil
}

func (r *QuestionsRepository) CountQuestionsByUser(ctx context.Context, userID string) (int64, error) {
	count, err := r.mongoRepo.CountDocuments(ctx, questionsCollection, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}

	return count, nil
}
