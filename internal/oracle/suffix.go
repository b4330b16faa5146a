package oracle

import (
	"context"
	"crypto/cipher"
	"io"

	"blockprobe/internal/crypto"
)

// SuffixConfig sizes the hidden material of a SuffixECB.
type SuffixConfig struct {
	// The prefix length is drawn uniformly from [MinPrefix, MaxPrefix].
	MinPrefix, MaxPrefix int
	// Suffix defaults to DefaultSuffix.
	Suffix []byte
}

// SuffixECB computes ECB(key, prefix||input||suffix) with a fixed key, prefix and suffix.
type SuffixECB struct {
	block  cipher.Block
	prefix []byte
	suffix []byte
}

func NewSuffixECB(src io.Reader, cfg SuffixConfig) (*SuffixECB, error) {
	b, err := newKey(src)
	if err != nil {
		return nil, err
	}
	n, err := crypto.RandomRange(src, cfg.MinPrefix, cfg.MaxPrefix)
	if err != nil {
		return nil, err
	}
	prefix, err := crypto.RandomBytes(src, n)
	if err != nil {
		return nil, err
	}
	suffix := cfg.Suffix
	if suffix == nil {
		suffix = DefaultSuffix()
	}
	return &SuffixECB{block: b, prefix: prefix, suffix: append([]byte(nil), suffix...)}, nil
}

func (s *SuffixECB) Encrypt(_ context.Context, input []byte) ([]byte, error) {
	buf := make([]byte, 0, len(s.prefix)+len(input)+len(s.suffix))
	buf = append(append(append(buf, s.prefix...), input...), s.suffix...)
	return crypto.ECBEncrypt(s.block, buf), nil
}

// PrefixLen and Suffix expose the hidden material for scoring an attack's answer.
func (s *SuffixECB) PrefixLen() int { return len(s.prefix) }
func (s *SuffixECB) Suffix() []byte { return append([]byte(nil), s.suffix...) }
