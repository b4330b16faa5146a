// Package oracle holds the victim systems the attacks run against and exposes them over
// HTTP. Every victim draws its secrets from an io.Reader at construction time.
package oracle

import (
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"io"

	"github.com/samber/oops"

	"blockprobe/internal/crypto"
)

const keySize = 16

// ErrUnknownOracle is returned for names no victim is registered under.
var ErrUnknownOracle = errors.New("unknown oracle")

// Lyrics is the default secret suffix, base64 encoded.
const Lyrics = "Um9sbGluJyBpbiBteSA1LjAKV2l0aCBteSByYWctdG9wIGRvd24gc28gbXkgaGFpciBjYW4gYmxvdwpUaGUgZ2lybGllcyBvbiBzdGFuZGJ5IHdhdmluZyBqdXN0IHRvIHNheSBoaQpEaWQgeW91IHN0b3A/IE5vLCBJIGp1c3QgZHJvdmUgYnkK"

// DefaultSuffix decodes Lyrics.
func DefaultSuffix() []byte {
	b, err := base64.StdEncoding.DecodeString(Lyrics)
	if err != nil {
		panic(err)
	}
	return b
}

func newKey(src io.Reader) (cipher.Block, error) {
	key, err := crypto.RandomBytes(src, keySize)
	if err != nil {
		return nil, err
	}
	return crypto.NewAES(key)
}

// Names of the registered victims.
const (
	NameSuffix   = "suffix"
	NameCoinToss = "coin-toss"
	NameCookie   = "cookie"
	NameProfile  = "profile"
	NamePadding  = "padding"
)

// Victims is the set of oracles served together.
type Victims struct {
	Suffix   *SuffixECB
	CoinToss *CoinToss
	Cookie   *Cookie
	Profile  *Profile
	Padding  *Padding
}

// NewVictims builds every victim with default settings. Each victim gets its own stream
// seeded from src so that victims drawing randomness per call never share a reader.
func NewVictims(src io.Reader) (*Victims, error) {
	sub := func() (io.Reader, error) {
		seed, err := crypto.RandomBytes(src, 32)
		if err != nil {
			return nil, err
		}
		return crypto.NewSource(seed), nil
	}
	var (
		v   Victims
		r   io.Reader
		err error
	)
	if r, err = sub(); err != nil {
		return nil, err
	}
	if v.Suffix, err = NewSuffixECB(r, SuffixConfig{MinPrefix: 2, MaxPrefix: 32}); err != nil {
		return nil, err
	}
	if r, err = sub(); err != nil {
		return nil, err
	}
	v.CoinToss = NewCoinToss(r)
	if r, err = sub(); err != nil {
		return nil, err
	}
	if v.Cookie, err = NewCookie(r); err != nil {
		return nil, err
	}
	if r, err = sub(); err != nil {
		return nil, err
	}
	if v.Profile, err = NewProfile(r); err != nil {
		return nil, err
	}
	if r, err = sub(); err != nil {
		return nil, err
	}
	if v.Padding, err = NewPadding(r, nil); err != nil {
		return nil, err
	}
	return &v, nil
}

func unknown(name string) error {
	return oops.In("oracle").With("name", name).Wrapf(ErrUnknownOracle, "lookup")
}
