// Package quiztest provides in-memory fakes for the quiz service's
// storage and tracking dependencies.
package quiztest

import (
	"context"
	"errors"
	"fmt"

	"github.com/quizhive/mimir/internal/dedup"
	"github.com/quizhive/mimir/internal/models"
)

// QuestionStore is an in-memory QuestionStore honoring scope+bucket
// candidate filtering. Insertion order is preserved so candidate lookups
// are deterministic.
type QuestionStore struct {
	Questions map[string]*models.Question
	Order     []string
	FindErr   error
	InsertErr error
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{Questions: make(map[string]*models.Question)}
}

func (s *QuestionStore) FindCandidates(_ context.Context, scope dedup.Scope, bucket uint8, excludeID string) ([]dedup.Candidate, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	var candidates []dedup.Candidate
	for _, id := range s.Order {
		q := s.Questions[id]
		if q == nil || q.ID == excludeID {
			continue
		}
		if q.UserID != scope.UserID || q.Category != scope.Category || q.Subcategory != scope.Subcategory {
			continue
		}
		if q.Bucket != int32(bucket) {
			continue
		}
		candidates = append(candidates, dedup.Candidate{
			ID:        q.ID,
			Text:      dedup.ComparisonText(q.Question, q.CorrectAnswer, q.IncorrectAnswers),
			Signature: q.Fingerprint,
		})
	}
	return candidates, nil
}

func (s *QuestionStore) InsertQuestion(_ context.Context, question *models.Question) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.Questions[question.ID] = question
	s.Order = append(s.Order, question.ID)
	return nil
}

func (s *QuestionStore) UpdateQuestion(_ context.Context, question *models.Question) error {
	if _, ok := s.Questions[question.ID]; !ok {
		return errors.New("no question matched")
	}
	s.Questions[question.ID] = question
	return nil
}

func (s *QuestionStore) GetQuestionByID(_ context.Context, id string) (*models.Question, error) {
	return s.Questions[id], nil
}

func (s *QuestionStore) DeleteQuestion(_ context.Context, userID, id string) error {
	q, ok := s.Questions[id]
	if !ok || q.UserID != userID {
		return errors.New("no question matched")
	}
	delete(s.Questions, id)
	return nil
}

// UploadStore is an in-memory dedup.UploadStore enforcing the
// (userID, digest) uniqueness invariant the real store backs with a
// unique index.
type UploadStore struct {
	Records   map[string]*models.UploadRecord
	FindErr   error
	InsertErr error
}

func NewUploadStore() *UploadStore {
	return &UploadStore{Records: make(map[string]*models.UploadRecord)}
}

func Key(userID, digest string) string {
	return userID + "\x00" + digest
}

func (s *UploadStore) FindUpload(_ context.Context, userID, digest string) (*models.UploadRecord, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	return s.Records[Key(userID, digest)], nil
}

func (s *UploadStore) InsertUpload(_ context.Context, record *models.UploadRecord) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	key := Key(record.UserID, record.Digest)
	if _, exists := s.Records[key]; exists {
		return fmt.Errorf("unique index violation: %w", dedup.ErrDuplicateUpload)
	}
	s.Records[key] = record
	return nil
}

// Tracker records import steps in memory.
type Tracker struct {
	Steps map[string][]models.Step
}

func NewTracker() *Tracker {
	return &Tracker{Steps: make(map[string][]models.Step)}
}

func (t *Tracker) Update(_ context.Context, jobID string, step models.Step) error {
	t.Steps[jobID] = append(t.Steps[jobID], step)
	return nil
}

func (t *Tracker) Get(_ context.Context, jobID string) (models.Step, error) {
	steps := t.Steps[jobID]
	if len(steps) == 0 {
		return "", dedup.ErrStatusNotFound
	}
	return steps[len(steps)-1], nil
}
