package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizhive/mimir/internal/simhash"
)

func TestIsDuplicate(t *testing.T) {
	sigA := simhash.Fingerprint("what is the capital of france paris")
	sigB := simhash.Fingerprint("completely different question about planets mars")

	tests := []struct {
		name     string
		candText string
		candSig  string
		newText  string
		newSig   string
		want     bool
	}{
		{
			name:     "case-insensitive exact text match despite differing signatures",
			candText: "Paris",
			candSig:  sigA,
			newText:  "paris",
			newSig:   sigB,
			want:     true,
		},
		{
			name:     "signature equality with different text",
			candText: "What is the capital of France Paris",
			candSig:  sigA,
			newText:  "what is the capital of france  paris",
			newSig:   sigA,
			want:     true,
		},
		{
			name:     "no match on different text and signatures",
			candText: "What is the capital of France Paris",
			candSig:  sigA,
			newText:  "Which planet is red Mars",
			newSig:   sigB,
			want:     false,
		},
		{
			name:     "zero signatures never match through the signature branch",
			candText: "stored question",
			candSig:  simhash.ZeroSignature,
			newText:  "different question",
			newSig:   simhash.ZeroSignature,
			want:     false,
		},
		{
			name:     "two literally empty texts match through the text branch",
			candText: "",
			candSig:  simhash.ZeroSignature,
			newText:  "",
			newSig:   simhash.ZeroSignature,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsDuplicate(tt.candText, tt.candSig, tt.newText, tt.newSig)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstMatch(t *testing.T) {
	sig := simhash.Fingerprint("what is the capital of france paris london berlin")
	candidates := []Candidate{
		{ID: "q1", Text: "unrelated text entirely", Signature: simhash.Fingerprint("unrelated text entirely")},
		{ID: "q2", Text: "What is the capital of France Paris London Berlin", Signature: sig},
		{ID: "q3", Text: "also unrelated", Signature: simhash.Fingerprint("also unrelated")},
	}

	id, found := FirstMatch(candidates, "WHAT IS THE CAPITAL OF FRANCE PARIS LONDON BERLIN", sig)
	assert.True(t, found)
	assert.Equal(t, "q2", id)
}

func TestFirstMatchEmptyCandidates(t *testing.T) {
	// A brand-new scope yields no candidates; the item is unique.
	id, found := FirstMatch(nil, "some question", simhash.Fingerprint("some question"))
	assert.False(t, found)
	assert.Empty(t, id)
}

func TestComparisonText(t *testing.T) {
	text := ComparisonText("What is 2+2?", "4", []string{"3", "5", "22"})
	assert.Equal(t, "What is 2+2? 4 3 5 22", text)

	// No incorrect answers still produces a stable template.
	assert.Equal(t, "Q A ", ComparisonText("Q", "A", nil))
}
