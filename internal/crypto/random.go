package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/samber/oops"
	"golang.org/x/crypto/hkdf"
)

// hkdf-sha256 can expand at most 255 hash blocks per reader.
const segmentSize = 255 * sha256.Size

// NewSource returns crypto/rand.Reader for an empty seed, otherwise an endless
// deterministic stream derived from seed. Seeded streams make victim secrets reproducible.
func NewSource(seed []byte) io.Reader {
	if len(seed) == 0 {
		return rand.Reader
	}
	return &seededReader{seed: append([]byte(nil), seed...)}
}

type seededReader struct {
	seed    []byte
	segment uint64
	used    int
	cur     io.Reader
}

func (s *seededReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if s.cur == nil || s.used == segmentSize {
			info := binary.BigEndian.AppendUint64([]byte("blockprobe/source/"), s.segment)
			s.cur = hkdf.New(sha256.New, s.seed, nil, info)
			s.segment++
			s.used = 0
		}
		chunk := len(p) - n
		if chunk > segmentSize-s.used {
			chunk = segmentSize - s.used
		}
		if _, err := io.ReadFull(s.cur, p[n:n+chunk]); err != nil {
			return n, err
		}
		s.used += chunk
		n += chunk
	}
	return n, nil
}

// Derive expands input into outLen bytes bound to salt and info. Distinct info labels give
// independent outputs.
func Derive(input, salt, info []byte, outLen int) ([]byte, error) {
	out := make([]byte, outLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, input, salt, info), out); err != nil {
		return nil, oops.In("crypto").With("out_len", outLen).Wrapf(err, "derive")
	}
	return out, nil
}

// RandomBytes reads n bytes from r.
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, oops.In("crypto").Wrapf(err, "random bytes")
	}
	return b, nil
}

// RandomIntn returns a value in [0, n) drawn from r. The modulo bias is irrelevant at the
// sizes used here.
func RandomIntn(r io.Reader, n int) (int, error) {
	if n <= 0 {
		panic("crypto: RandomIntn with non-positive bound")
	}
	b, err := RandomBytes(r, 8)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint64(b) % uint64(n)), nil
}

// RandomRange returns a value in [min, max].
func RandomRange(r io.Reader, min, max int) (int, error) {
	if min > max {
		panic("crypto: RandomRange with min > max")
	}
	v, err := RandomIntn(r, max-min+1)
	return min + v, err
}
