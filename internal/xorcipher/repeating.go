package xorcipher

import (
	"sort"

	"github.com/samber/oops"

	"blockprobe/internal/score"
	"blockprobe/pkg/logx"
)

const (
	minKeySize     = 2
	maxKeySize     = 40
	keySizeGuesses = 5
)

// Break is the best repeating-key decryption found.
type Break struct {
	Key       []byte
	Plaintext []byte
	Score     score.Score
}

type keySize struct {
	size int
	dist float64
}

// BreakRepeatingKey recovers the key of a repeating-key XOR ciphertext of English text.
// Key sizes are ranked by the average bit distance between consecutive key-sized blocks,
// normalised by size; the best few are solved column by column as single-byte XOR and the
// most English-looking plaintext wins.
func BreakRepeatingKey(ct []byte) (*Break, error) {
	var sizes []keySize
	for ks := minKeySize; ks <= maxKeySize && 2*ks <= len(ct); ks++ {
		sizes = append(sizes, keySize{ks, normalisedDistance(ct, ks)})
	}
	if len(sizes) == 0 {
		return nil, oops.In("xorcipher").With("len", len(ct)).Wrapf(ErrNoCandidate, "ciphertext too short")
	}
	sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].dist < sizes[j].dist })
	if len(sizes) > keySizeGuesses {
		sizes = sizes[:keySizeGuesses]
	}

	var best *Break
	for _, ks := range sizes {
		key := make([]byte, ks.size)
		for col := range key {
			if c := GuessSingleByte(column(ct, col, ks.size)); len(c) > 0 {
				key[col] = c[0].Key
			}
		}
		pt := RepeatingKeyXOR(ct, key)
		s, ok := score.ChiSquared(pt)
		if !ok {
			continue
		}
		logx.Debugf("key size %d: distance %.3f, score %.2f", ks.size, ks.dist, s.Weighted())
		if best == nil || s.Weighted() < best.Score.Weighted() {
			best = &Break{Key: key, Plaintext: pt, Score: s}
		}
	}
	if best == nil {
		return nil, oops.In("xorcipher").Wrap(ErrNoCandidate)
	}
	return best, nil
}

func normalisedDistance(ct []byte, ks int) float64 {
	n := len(ct)/ks - 1
	total := 0.0
	for i := 0; i < n; i++ {
		d, _ := HammingDistance(ct[i*ks:(i+1)*ks], ct[(i+1)*ks:(i+2)*ks])
		total += float64(d) / float64(ks)
	}
	return total / float64(n)
}

func column(ct []byte, col, stride int) []byte {
	out := make([]byte, 0, len(ct)/stride+1)
	for i := col; i < len(ct); i += stride {
		out = append(out, ct[i])
	}
	return out
}
