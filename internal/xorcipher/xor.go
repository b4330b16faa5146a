// Package xorcipher implements XOR ciphers and the frequency-analysis attacks that break them.
package xorcipher

import (
	"errors"
	"math/bits"
	"sort"

	"github.com/samber/oops"

	"blockprobe/internal/score"
)

var (
	ErrLengthMismatch = errors.New("inputs differ in length")
	ErrNoCandidate    = errors.New("no printable candidate")
)

// FixedXOR combines two equal-length buffers.
func FixedXOR(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, oops.In("xorcipher").With("a", len(a), "b", len(b)).Wrap(ErrLengthMismatch)
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

func SingleByteXOR(in []byte, key byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ key
	}
	return out
}

// RepeatingKeyXOR cycles key over in. It panics on an empty key.
func RepeatingKeyXOR(in, key []byte) []byte {
	if len(key) == 0 {
		panic("xorcipher: empty key")
	}
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}

// HammingDistance counts differing bits between two equal-length buffers.
func HammingDistance(a, b []byte) (int, error) {
	if len(a) != len(b) {
		return 0, oops.In("xorcipher").With("a", len(a), "b", len(b)).Wrap(ErrLengthMismatch)
	}
	n := 0
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return n, nil
}

// Candidate is one scored decryption.
type Candidate struct {
	// Index of the ciphertext the candidate came from, for DetectSingleByte.
	Index     int
	Key       byte
	Score     score.Score
	Plaintext []byte
}

func sortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Score.Weighted() < c[j].Score.Weighted() })
}

// GuessSingleByte tries every key and returns the valid UTF-8 decryptions without control
// characters, most English-like first.
func GuessSingleByte(ct []byte) []Candidate {
	var out []Candidate
	for k := 0; k < 256; k++ {
		pt := SingleByteXOR(ct, byte(k))
		s, ok := score.ChiSquared(pt)
		if !ok || s.Unprintable > 0 {
			continue
		}
		out = append(out, Candidate{Key: byte(k), Score: s, Plaintext: pt})
	}
	sortCandidates(out)
	return out
}

// DetectSingleByte guesses every ciphertext and ranks all candidates together, so the first
// result points at the ciphertext most likely to be single-byte XORed English.
func DetectSingleByte(cts [][]byte) []Candidate {
	var out []Candidate
	for i, ct := range cts {
		for _, c := range GuessSingleByte(ct) {
			c.Index = i
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out
}
