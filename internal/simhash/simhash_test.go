package simhash

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexSignature = regexp.MustCompile(`^[0-9A-F]{16}$`)

func TestFingerprintDeterminism(t *testing.T) {
	texts := []string{
		"What is the capital of France Paris London Berlin Madrid",
		"single",
		"a b c d e f g",
	}

	for _, text := range texts {
		first := Fingerprint(text)
		require.Regexp(t, hexSignature, first)
		assert.Equal(t, first, Fingerprint(text), "fingerprint must be deterministic for %q", text)
	}
}

func TestFingerprintNormalization(t *testing.T) {
	base := Fingerprint("What is the capital of France Paris")

	assert.Equal(t, base, Fingerprint("WHAT IS THE CAPITAL OF FRANCE PARIS"))
	assert.Equal(t, base, Fingerprint("what\tis the\ncapital of\r\nfrance paris"))
	assert.Equal(t, base, Fingerprint("  what is   the capital of france paris  "))
}

func TestFingerprintEmptyInput(t *testing.T) {
	assert.Equal(t, ZeroSignature, Fingerprint(""))
	assert.Equal(t, ZeroSignature, Fingerprint("   \t\r\n  "))
}

func TestFingerprintDistinctTexts(t *testing.T) {
	// Disjoint shingle sets should not collide on the test corpus.
	a := Fingerprint("alpha beta gamma delta")
	b := Fingerprint("epsilon zeta eta theta")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, ZeroSignature, a)
	assert.NotEqual(t, ZeroSignature, b)
}

func TestFingerprintSingleWord(t *testing.T) {
	// One word produces one unigram shingle and no bigrams.
	sig := Fingerprint("paris")
	require.Regexp(t, hexSignature, sig)
	assert.NotEqual(t, ZeroSignature, sig)
	assert.Equal(t, sig, Fingerprint("PARIS"))
}

func TestBucketRange(t *testing.T) {
	texts := []string{
		"What is the capital of France",
		"Which planet is known as the red planet",
		"x",
		"a longer question with many more words than the others have",
	}

	for _, text := range texts {
		sig := Fingerprint(text)
		bucket := Bucket(sig)
		// uint8 already bounds the range; pin the derivation instead.
		assert.Equal(t, sig[:2], hexByte(bucket), "bucket must be the top byte of %s", sig)
	}
}

func TestBucketEdgeCases(t *testing.T) {
	assert.Equal(t, uint8(0), Bucket(""))
	assert.Equal(t, uint8(0), Bucket("F"))
	assert.Equal(t, uint8(0), Bucket("ZZ00000000000000"))
	assert.Equal(t, uint8(0), Bucket(ZeroSignature))
	assert.Equal(t, uint8(0xAB), Bucket("AB34567890ABCDEF"))
	assert.Equal(t, uint8(0xFF), Bucket("FF00000000000000"))
}

func hexByte(b uint8) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}
