package attack

import (
	"bytes"
	"context"
	"errors"

	"blockprobe/internal/crypto"
	"blockprobe/pkg/logx"
)

const maxBlockSize = 256

// DiscoverBlockSize feeds growing runs of filler until the ciphertext length jumps. The
// jump is the block size; the filler length at the jump gives the length of everything
// the oracle adds around the input.
func DiscoverBlockSize(ctx context.Context, o Oracle) (blockSize, dataLen int, err error) {
	initial, err := o.Encrypt(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	for k := 1; k <= maxBlockSize; k++ {
		out, err := o.Encrypt(ctx, repeat('A', k))
		if err != nil {
			return 0, 0, err
		}
		if len(out) < len(initial) {
			return 0, 0, violated("ciphertext shrank as input grew", "input_len", k)
		}
		if len(out) > len(initial) {
			blockSize, dataLen = len(out)-len(initial), len(initial)-k
			logx.Debugf("block size %d, oracle data length %d", blockSize, dataLen)
			return blockSize, dataLen, nil
		}
	}
	return 0, 0, violated("ciphertext length never changed", "max_probe", maxBlockSize)
}

// DetectMode sends four identical blocks and reports ECB when any ciphertext block repeats.
// Four blocks leave at least three aligned copies whatever the oracle prepends.
func DetectMode(ctx context.Context, o Oracle, blockSize int) (crypto.Mode, error) {
	out, err := o.Encrypt(ctx, repeat('A', 4*blockSize))
	if err != nil {
		return "", err
	}
	if crypto.IsECB(out, blockSize) {
		return crypto.ModeECB, nil
	}
	return crypto.ModeCBC, nil
}

var prefixFillers = []byte{0xAA, 0x55, 0x00}

// DiscoverPrefixLen finds how many bytes an ECB oracle places before the input.
//
// For n in [2bs, 3bs) it sends n filler bytes; once two adjacent blocks are identical at
// block i, the candidate is i*bs - (n - 2bs). A filler equal to a neighbouring prefix or
// suffix byte shifts the repeat by one in either direction, so every candidate is checked
// with verifyPrefixLen before it is accepted, and the next filler is tried when a filler
// yields none.
func DiscoverPrefixLen(ctx context.Context, o Oracle, blockSize int) (int, error) {
	for _, f := range prefixFillers {
		n, err := prefixLenWith(ctx, o, blockSize, f)
		if errors.Is(err, ErrOracleAssumptionViolated) {
			continue
		}
		if err != nil {
			return 0, err
		}
		logx.Debugf("prefix length %d (filler %#02x)", n, f)
		return n, nil
	}
	return 0, violated("no filler gave a consistent prefix length, oracle is not ECB", "block_size", blockSize)
}

func prefixLenWith(ctx context.Context, o Oracle, bs int, fill byte) (int, error) {
	for n := 2 * bs; n < 3*bs; n++ {
		out, err := o.Encrypt(ctx, repeat(fill, n))
		if err != nil {
			return 0, err
		}
		// a contrast filler tells repeats we caused apart from repeats already in the suffix
		contrast, err := o.Encrypt(ctx, repeat(^fill, n))
		if err != nil {
			return 0, err
		}
		for i := 0; (i+2)*bs <= len(out); i++ {
			if !bytes.Equal(block(out, i, bs), block(out, i+1, bs)) {
				continue
			}
			if len(contrast) >= (i+1)*bs && bytes.Equal(block(out, i, bs), block(contrast, i, bs)) {
				continue
			}
			p := i*bs - (n - 2*bs)
			if p < 0 {
				continue
			}
			ok, err := verifyPrefixLen(ctx, o, bs, p)
			if err != nil {
				return 0, err
			}
			if ok {
				return p, nil
			}
		}
	}
	return 0, violated("no adjacent identical blocks, oracle is not ECB", "block_size", bs)
}

// verifyPrefixLen checks that a = (bs - p%bs) % bs alignment bytes put the input's next
// block exactly on block (p+a)/bs: its first and last byte both change that block and the
// last alignment byte does not.
func verifyPrefixLen(ctx context.Context, o Oracle, bs, p int) (bool, error) {
	a := (bs - p%bs) % bs
	k := (p + a) / bs
	base := append(repeat('A', a), repeat('B', bs)...)
	query := func(flip int) ([]byte, error) {
		in := append([]byte(nil), base...)
		if flip >= 0 {
			in[flip] ^= 0xFF
		}
		out, err := o.Encrypt(ctx, in)
		if err != nil || len(out) < (k+1)*bs {
			return nil, err
		}
		return block(out, k, bs), nil
	}
	ref, err := query(-1)
	if err != nil || ref == nil {
		return false, err
	}
	first, err := query(a)
	if err != nil || first == nil || bytes.Equal(first, ref) {
		return false, err
	}
	last, err := query(a + bs - 1)
	if err != nil || last == nil || bytes.Equal(last, ref) {
		return false, err
	}
	if a == 0 {
		return true, nil
	}
	align, err := query(a - 1)
	if err != nil || align == nil {
		return false, err
	}
	return bytes.Equal(align, ref), nil
}
