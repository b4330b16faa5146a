// Package attack recovers secrets from block-cipher oracles without the key. Attacks
// only see the capabilities below and never the victim's key, IV, prefix or suffix.
package attack

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"

	"github.com/samber/oops"
)

// ErrOracleAssumptionViolated is returned when an oracle is not deterministic, not ECB
// where ECB is required, or otherwise inconsistent with the attack's model. Attacks fail
// with it instead of returning wrong bytes.
var ErrOracleAssumptionViolated = errors.New("oracle assumption violated")

// Oracle encrypts attacker-chosen bytes under hidden state.
type Oracle interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, plaintext []byte) ([]byte, error)

func (f OracleFunc) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	return f(ctx, plaintext)
}

// PaddingOracle reports whether ciphertext decrypts under iv to well-padded plaintext.
type PaddingOracle interface {
	ValidPadding(ctx context.Context, ciphertext, iv []byte) (bool, error)
}

// countingOracle counts queries; safe for concurrent use if the wrapped oracle is.
type countingOracle struct {
	o Oracle
	n atomic.Int64
}

func (c *countingOracle) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	c.n.Add(1)
	return c.o.Encrypt(ctx, plaintext)
}

func repeat(b byte, n int) []byte { return bytes.Repeat([]byte{b}, n) }

func violated(msg string, kv ...any) error {
	return oops.In("attack").With(kv...).Wrapf(ErrOracleAssumptionViolated, "%s", msg)
}

// checkDeterministic queries probe twice and fails if the outputs differ.
func checkDeterministic(ctx context.Context, o Oracle, probe []byte) error {
	a, err := o.Encrypt(ctx, probe)
	if err != nil {
		return err
	}
	b, err := o.Encrypt(ctx, probe)
	if err != nil {
		return err
	}
	if !bytes.Equal(a, b) {
		return violated("oracle is not deterministic", "probe_len", len(probe))
	}
	return nil
}

func block(data []byte, i, bs int) []byte { return data[i*bs : (i+1)*bs] }
