package dedup

import (
	"context"
	"strings"

	"github.com/quizhive/mimir/internal/simhash"
)

// Scope is the partition within which duplicates are checked. Item-level
// checks use the same rule everywhere: the owning user plus category and
// subcategory, so different users may legitimately store the same
// question.
type Scope struct {
	UserID      string
	Category    string
	Subcategory string
}

// Candidate is a read-only projection of a stored question used only for
// comparison. Text is the candidate's comparison text assembled with
// ComparisonText; Signature is its stored fingerprint.
type Candidate struct {
	ID        string
	Text      string
	Signature string
}

// CandidateFinder is the candidate-store contract: lookups are keyed by
// exact scope and exact bucket equality. A scope that does not exist yet
// yields an empty candidate set, not an error. excludeID, when non-empty,
// removes one item from the result (used when re-checking an item against
// its own scope during update).
type CandidateFinder interface {
	FindCandidates(ctx context.Context, scope Scope, bucket uint8, excludeID string) ([]Candidate, error)
}

// ComparisonText assembles the text both sides of every duplicate
// comparison are built from. Callers must use the same template when
// storing and when checking.
func ComparisonText(question, correctAnswer string, incorrectAnswers []string) string {
	return question + " " + correctAnswer + " " + strings.Join(incorrectAnswers, " ")
}

// IsDuplicate reports whether a new item duplicates a candidate. An item
// is a duplicate if either the texts match case-insensitively (exact
// repeat) or the signatures are equal (fingerprint collision within the
// same bucket, a strong near-duplicate signal since the bucket already
// filters on the top byte). The zero signature never satisfies the
// signature branch: two fingerprint-less items can only match through
// the text comparison.
func IsDuplicate(candidateText, candidateSignature, newText, newSignature string) bool {
	if strings.EqualFold(candidateText, newText) {
		return true
	}
	if candidateSignature == newSignature && candidateSignature != simhash.ZeroSignature {
		return true
	}
	return false
}

// FirstMatch evaluates the policy against every candidate and returns the
// ID of the first match. An empty candidate set means the item is unique.
func FirstMatch(candidates []Candidate, text, signature string) (string, bool) {
	for _, candidate := range candidates {
		if IsDuplicate(candidate.Text, candidate.Signature, text, signature) {
			return candidate.ID, true
		}
	}
	return "", false
}
