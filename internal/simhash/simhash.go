package simhash

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// ZeroSignature is the reserved signature for empty input. It is a
// sentinel meaning "no fingerprint", not a real hash: callers must never
// treat two zero signatures as a fingerprint match.
const ZeroSignature = "0000000000000000"

var whitespace = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")

// Fingerprint computes a 64-bit SimHash of the given text, rendered as
// 16 uppercase hex characters. Identical text after normalization
// (lowercasing, whitespace collapsing) always yields the same signature.
// Empty or whitespace-only input yields ZeroSignature.
func Fingerprint(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(whitespace.Replace(text)))
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return ZeroSignature
	}

	// Weighted majority vote over shingle hashes: each shingle's hash
	// votes +1/-1 per bit position.
	var vector [64]int
	for _, shingle := range shingles(words) {
		hash := shingleHash(shingle)
		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var signature uint64
	for i := 0; i < 64; i++ {
		// Ties resolve to bit-clear.
		if vector[i] > 0 {
			signature |= 1 << uint(i)
		}
	}

	return fmt.Sprintf("%016X", signature)
}

// shingles returns every individual word plus every adjacent word bigram.
// Both contribute so that texts differing by a single inserted or removed
// word still share most shingles.
func shingles(words []string) []string {
	out := make([]string, 0, len(words)*2-1)
	out = append(out, words...)
	for i := 0; i+1 < len(words); i++ {
		out = append(out, words[i]+" "+words[i+1])
	}
	return out
}

// shingleHash folds a SHA-256 digest to 64 bits (low 8 bytes). A
// cryptographic digest keeps the hash stable across runs and platforms,
// unlike seeded map hashes.
func shingleHash(shingle string) uint64 {
	sum := sha256.Sum256([]byte(shingle))
	return binary.BigEndian.Uint64(sum[24:32])
}

// Bucket derives a partitioning key from the top 8 bits of a signature
// (its first two hex characters). Signatures shorter than two characters
// map to bucket 0.
//
// A single-byte bucket is a deliberate trade-off: near-duplicates whose
// signatures differ within the top byte land in different buckets and are
// never compared. Widening the bucket (e.g. banded LSH) would change
// verdicts for already-stored data, so the false negatives at the bucket
// boundary are accepted.
func Bucket(signature string) uint8 {
	if len(signature) < 2 {
		return 0
	}
	b, err := strconv.ParseUint(signature[:2], 16, 8)
	if err != nil {
		return 0
	}
	return uint8(b)
}
