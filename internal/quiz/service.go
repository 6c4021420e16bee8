package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quizhive/mimir/internal/dedup"
	"github.com/quizhive/mimir/internal/metrics"
	"github.com/quizhive/mimir/internal/models"
	"github.com/quizhive/mimir/internal/simhash"
)

// ErrQuestionNotFound is returned when an update or delete targets a
// question the caller does not own or that does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// ErrInvalidPayload is returned when an upload payload is not a valid
// question collection.
var ErrInvalidPayload = errors.New("invalid collection payload")

// DuplicateQuestionError reports the stored question a submission
// collides with. Duplicate detection is a normal outcome, not a failure.
type DuplicateQuestionError struct {
	ExistingID string
}

func (e *DuplicateQuestionError) Error() string {
	return "duplicate of question " + e.ExistingID
}

// DuplicateUploadError reports the stored upload a payload re-submission
// collides with.
type DuplicateUploadError struct {
	ExistingUploadID string
}

func (e *DuplicateUploadError) Error() string {
	return "duplicate of upload " + e.ExistingUploadID
}

// QuestionStore is the persistence surface the workflows need. It embeds
// the candidate-lookup contract the duplicate policy is built on.
type QuestionStore interface {
	dedup.CandidateFinder
	InsertQuestion(ctx context.Context, question *models.Question) error
	UpdateQuestion(ctx context.Context, question *models.Question) error
	GetQuestionByID(ctx context.Context, id string) (*models.Question, error)
	DeleteQuestion(ctx context.Context, userID, id string) error
}

// ImportTracker records bulk-import progress so callers can poll a job.
type ImportTracker interface {
	Update(ctx context.Context, jobID string, step models.Step) error
	Get(ctx context.Context, jobID string) (models.Step, error)
}

// Service implements the duplicate-aware question workflows. The
// fingerprint and policy layers are pure; all scoping state (the owning
// user in particular) is an explicit parameter, never ambient.
type Service struct {
	questions QuestionStore
	checker   *dedup.Checker
	tracker   ImportTracker
	pool      *dedup.WorkerPool
}

func NewService(questions QuestionStore, uploads dedup.UploadStore, tracker ImportTracker, pool *dedup.WorkerPool) *Service {
	return &Service{
		questions: questions,
		checker:   dedup.NewChecker(uploads),
		tracker:   tracker,
		pool:      pool,
	}
}

// fingerprint computes the signature and bucket for one input.
func fingerprint(input *models.QuestionInput) (string, uint8) {
	text := dedup.ComparisonText(input.Question, input.CorrectAnswer, input.IncorrectAnswers)
	signature := simhash.Fingerprint(text)
	metrics.FingerprintsComputed.Inc()
	return signature, simhash.Bucket(signature)
}

// checkDuplicate runs the scoped candidate lookup and the resolution
// policy. A storage failure aborts the caller's workflow: a failed check
// must never be treated as "unique".
func (s *Service) checkDuplicate(ctx context.Context, scope dedup.Scope, bucket uint8, text, signature, excludeID string) (string, bool, error) {
	candidates, err := s.questions.FindCandidates(ctx, scope, bucket, excludeID)
	if err != nil {
		return "", false, fmt.Errorf("duplicate check failed: %w", err)
	}

	existingID, found := dedup.FirstMatch(candidates, text, signature)
	return existingID, found, nil
}

// CreateQuestion adds a single question after checking it against its
// scope. On a duplicate it returns a DuplicateQuestionError naming the
// stored question.
func (s *Service) CreateQuestion(ctx context.Context, userID string, input *models.QuestionInput) (*models.Question, error) {
	text := dedup.ComparisonText(input.Question, input.CorrectAnswer, input.IncorrectAnswers)
	signature, bucket := fingerprint(input)
	scope := dedup.Scope{UserID: userID, Category: input.Category, Subcategory: input.Subcategory}

	existingID, found, err := s.checkDuplicate(ctx, scope, bucket, text, signature, "")
	if err != nil {
		return nil, err
	}
	if found {
		metrics.DuplicatesDetected.WithLabelValues("create").Inc()
		log.Debug().
			Str("userId", userID).
			Str("existingId", existingID).
			Msg("Rejected duplicate question")
		return nil, &DuplicateQuestionError{ExistingID: existingID}
	}

	question := &models.Question{
		ID:               uuid.NewString(),
		UserID:           userID,
		Category:         input.Category,
		Subcategory:      input.Subcategory,
		Question:         input.Question,
		CorrectAnswer:    input.CorrectAnswer,
		IncorrectAnswers: input.IncorrectAnswers,
		Fingerprint:      signature,
		Bucket:           int32(bucket),
	}

	if err := s.questions.InsertQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to store question: %w", err)
	}

	return question, nil
}

// UpdateQuestion recomputes the fingerprint and bucket from the new
// fields and re-checks the scope, excluding the question itself so it
// cannot match its own stored row.
func (s *Service) UpdateQuestion(ctx context.Context, userID, id string, input *models.QuestionInput) (*models.Question, error) {
	existing, err := s.questions.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return nil, ErrQuestionNotFound
	}

	text := dedup.ComparisonText(input.Question, input.CorrectAnswer, input.IncorrectAnswers)
	signature, bucket := fingerprint(input)
	scope := dedup.Scope{UserID: userID, Category: input.Category, Subcategory: input.Subcategory}

	existingID, found, err := s.checkDuplicate(ctx, scope, bucket, text, signature, id)
	if err != nil {
		return nil, err
	}
	if found {
		metrics.DuplicatesDetected.WithLabelValues("update").Inc()
		return nil, &DuplicateQuestionError{ExistingID: existingID}
	}

	existing.Category = input.Category
	existing.Subcategory = input.Subcategory
	existing.Question = input.Question
	existing.CorrectAnswer = input.CorrectAnswer
	existing.IncorrectAnswers = input.IncorrectAnswers
	existing.Fingerprint = signature
	existing.Bucket = int32(bucket)

	if err := s.questions.UpdateQuestion(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return existing, nil
}

// DeleteQuestion removes a question; its fingerprint and bucket are
// stored inline and go with it.
func (s *Service) DeleteQuestion(ctx context.Context, userID, id string) error {
	existing, err := s.questions.GetQuestionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load question: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return ErrQuestionNotFound
	}

	if err := s.questions.DeleteQuestion(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

// ImportQuestions imports a batch. Fingerprints are computed in parallel
// (each item is independent) but checks and inserts run sequentially in
// input order, so earlier items in the batch are visible as candidates to
// later ones and the report follows the caller's ordering.
func (s *Service) ImportQuestions(ctx context.Context, userID string, items []models.QuestionInput) (*models.ImportReport, error) {
	jobID := uuid.NewString()
	s.trackStep(ctx, jobID, models.StepReceived)

	report := &models.ImportReport{
		JobID:              jobID,
		ImportedIDs:        []string{},
		DuplicateQuestions: []string{},
	}
	if len(items) == 0 {
		s.trackStep(ctx, jobID, models.StepCompleted)
		return report, nil
	}

	s.trackStep(ctx, jobID, models.StepFingerprinting)
	signatures, buckets := s.fingerprintAll(items)

	s.trackStep(ctx, jobID, models.StepChecking)
	for i := range items {
		item := &items[i]
		text := dedup.ComparisonText(item.Question, item.CorrectAnswer, item.IncorrectAnswers)
		scope := dedup.Scope{UserID: userID, Category: item.Category, Subcategory: item.Subcategory}

		existingID, found, err := s.checkDuplicate(ctx, scope, buckets[i], text, signatures[i], "")
		if err != nil {
			s.trackStep(ctx, jobID, models.StepFailed)
			return nil, err
		}
		if found {
			metrics.DuplicatesDetected.WithLabelValues("import").Inc()
			report.Duplicates++
			report.DuplicateQuestions = append(report.DuplicateQuestions, item.Question)
			log.Debug().
				Str("jobId", jobID).
				Str("existingId", existingID).
				Int("index", i).
				Msg("Skipped duplicate question during import")
			continue
		}

		question := &models.Question{
			ID:               uuid.NewString(),
			UserID:           userID,
			Category:         item.Category,
			Subcategory:      item.Subcategory,
			Question:         item.Question,
			CorrectAnswer:    item.CorrectAnswer,
			IncorrectAnswers: item.IncorrectAnswers,
			Fingerprint:      signatures[i],
			Bucket:           int32(buckets[i]),
		}
		if err := s.questions.InsertQuestion(ctx, question); err != nil {
			s.trackStep(ctx, jobID, models.StepFailed)
			return nil, fmt.Errorf("failed to store imported question: %w", err)
		}
		report.Imported++
		report.ImportedIDs = append(report.ImportedIDs, question.ID)
	}

	s.trackStep(ctx, jobID, models.StepCompleted)
	log.Info().
		Str("jobId", jobID).
		Str("userId", userID).
		Int("imported", report.Imported).
		Int("duplicates", report.Duplicates).
		Msg("Import completed")

	return report, nil
}

// ImportStatus returns the recorded progress of an import job.
func (s *Service) ImportStatus(ctx context.Context, jobID string) (models.Step, error) {
	return s.tracker.Get(ctx, jobID)
}

// UploadCollection runs content-level dedup on the raw payload before any
// item-level work, then imports the parsed items through the same
// per-item workflow.
func (s *Service) UploadCollection(ctx context.Context, userID, rawPayload string) (*models.UploadResult, error) {
	var items []models.QuestionInput
	if err := json.Unmarshal([]byte(rawPayload), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	record, err := s.checker.CheckAndRecord(ctx, userID, rawPayload)
	if errors.Is(err, dedup.ErrDuplicateUpload) {
		metrics.UploadsRejected.Inc()
		existingID := ""
		if record != nil {
			existingID = record.ID
		}
		return nil, &DuplicateUploadError{ExistingUploadID: existingID}
	}
	if err != nil {
		return nil, err
	}

	report, err := s.ImportQuestions(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	return &models.UploadResult{
		UploadID: record.ID,
		Report:   report,
	}, nil
}

// fingerprintJob computes one item's signature and bucket into its slot.
// Slots are disjoint, so no locking is needed.
type fingerprintJob struct {
	input      *models.QuestionInput
	signatures []string
	buckets    []uint8
	index      int
	wg         *sync.WaitGroup
}

func (j *fingerprintJob) Execute(_ context.Context) error {
	defer j.wg.Done()
	j.signatures[j.index], j.buckets[j.index] = fingerprint(j.input)
	return nil
}

// fingerprintAll fingerprints every item, through the worker pool when one
// is wired, preserving input order either way.
func (s *Service) fingerprintAll(items []models.QuestionInput) ([]string, []uint8) {
	signatures := make([]string, len(items))
	buckets := make([]uint8, len(items))

	if s.pool == nil {
		for i := range items {
			signatures[i], buckets[i] = fingerprint(&items[i])
		}
		return signatures, buckets
	}

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		job := &fingerprintJob{
			input:      &items[i],
			signatures: signatures,
			buckets:    buckets,
			index:      i,
			wg:         &wg,
		}
		if err := s.pool.Submit(job); err != nil {
			// Pool shut down; fall back to computing inline.
			wg.Done()
			signatures[i], buckets[i] = fingerprint(&items[i])
		}
	}
	wg.Wait()

	return signatures, buckets
}

// trackStep records import progress; tracking failures are logged, never
// fatal to the import itself.
func (s *Service) trackStep(ctx context.Context, jobID string, step models.Step) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.Update(ctx, jobID, step); err != nil {
		log.Warn().Err(err).
			Str("jobId", jobID).
			Str("step", string(step)).
			Msg("Failed to track import step")
	}
}
