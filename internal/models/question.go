package models

import (
	"time"
)

// Question represents a quiz question stored in MongoDB. Fingerprint and
// Bucket are computed from the comparison text (question + correct answer
// + incorrect answers) at creation time and recomputed on every update of
// any of those fields; they are never allowed to go stale.
type Question struct {
	ID               string    `bson:"_id" json:"id"`
	UserID           string    `bson:"userId" json:"userId"`
	Category         string    `bson:"category" json:"category"`
	Subcategory      string    `bson:"subcategory" json:"subcategory"`
	Question         string    `bson:"question" json:"question"`
	CorrectAnswer    string    `bson:"correctAnswer" json:"correctAnswer"`
	IncorrectAnswers []string  `bson:"incorrectAnswers" json:"incorrectAnswers"`
	Fingerprint      string    `bson:"fingerprint" json:"fingerprint"`
	Bucket           int32     `bson:"bucket" json:"bucket"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// QuestionInput is the caller-supplied portion of a question.
type QuestionInput struct {
	Category         string   `json:"category" binding:"required"`
	Subcategory      string   `json:"subcategory" binding:"required"`
	Question         string   `json:"question" binding:"required"`
	CorrectAnswer    string   `json:"correctAnswer" binding:"required"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
}

// ImportRequest represents a bulk import of questions.
type ImportRequest struct {
	Items []QuestionInput `json:"items" binding:"required"`
}

// ImportReport summarizes a bulk import. DuplicateQuestions holds the
// question texts of rejected items in input order, for user-facing
// reporting.
type ImportReport struct {
	JobID              string   `json:"jobId"`
	Imported           int      `json:"imported"`
	Duplicates         int      `json:"duplicates"`
	ImportedIDs        []string `json:"importedIds"`
	DuplicateQuestions []string `json:"duplicateQuestions"`
}
