package attack

import (
	"bytes"
	"context"

	"github.com/samber/oops"

	"blockprobe/internal/crypto"
	"blockprobe/pkg/logx"
)

// Forgery is a ciphertext built without the key, plus what was learned on the way.
type Forgery struct {
	Ciphertext []byte
	BlockSize  int
	PrefixLen  int
	// UserData is the input that was submitted to the oracle to obtain the raw material.
	UserData []byte
}

// DiscoverCBCPrefixLen finds how many bytes a deterministic CBC oracle places before the input.
//
// Two one-byte inputs that differ first diverge in the block holding the input (idx). Then
// for n = 1..bs, inputs A*n||X and A*n||Y first differ after idx once the filler has
// filled block idx, giving prefix = (idx+1)*bs - n.
func DiscoverCBCPrefixLen(ctx context.Context, o Oracle, bs int) (int, error) {
	idx, err := firstDiffBlock(ctx, o, []byte{'A'}, []byte{'B'}, bs)
	if err != nil {
		return 0, err
	}
	for n := 1; n <= bs; n++ {
		j, err := firstDiffBlock(ctx, o, append(repeat('A', n), 'X'), append(repeat('A', n), 'Y'), bs)
		if err != nil {
			return 0, err
		}
		if j > idx {
			return (idx+1)*bs - n, nil
		}
	}
	return 0, violated("could not locate input offset", "block", idx)
}

func firstDiffBlock(ctx context.Context, o Oracle, a, b []byte, bs int) (int, error) {
	ca, err := o.Encrypt(ctx, a)
	if err != nil {
		return 0, err
	}
	cb, err := o.Encrypt(ctx, b)
	if err != nil {
		return 0, err
	}
	for i := 0; (i+1)*bs <= len(ca) && (i+1)*bs <= len(cb); i++ {
		if !bytes.Equal(block(ca, i, bs), block(cb, i, bs)) {
			return i, nil
		}
	}
	return 0, violated("different inputs gave identical ciphertext")
}

// BitFlip forges a CBC ciphertext whose plaintext contains payload even though the oracle
// escapes every byte in forbidden. Each forbidden byte is submitted XOR a mask that lets it
// through, and the mask is then XORed into the preceding ciphertext block, which garbles
// that block and restores the payload in the next.
func BitFlip(ctx context.Context, o Oracle, payload, forbidden []byte) (*Forgery, error) {
	bs, _, err := DiscoverBlockSize(ctx, o)
	if err != nil {
		return nil, err
	}
	if len(payload) > bs {
		return nil, oops.In("attack").With("payload_len", len(payload), "block_size", bs).Wrapf(crypto.ErrInvalidLength, "payload must fit one block")
	}
	prefixLen, err := DiscoverCBCPrefixLen(ctx, o, bs)
	if err != nil {
		return nil, err
	}
	masked := append([]byte(nil), payload...)
	masks := make([]byte, bs)
	off := bs - len(payload)
	for i, c := range payload {
		if bytes.IndexByte(forbidden, c) < 0 {
			continue
		}
		m, ok := passingMask(c, forbidden)
		if !ok {
			return nil, oops.In("attack").With("byte", c).Errorf("no single-bit mask lets byte through")
		}
		masked[i] ^= m
		masks[off+i] = m
	}
	align := (bs - prefixLen%bs) % bs
	userData := append(repeat('A', align+bs+off), masked...)
	ct, err := o.Encrypt(ctx, userData)
	if err != nil {
		return nil, err
	}
	target := (prefixLen+align)/bs + 1
	logx.Debugf("bit-flip: prefix %d, target block %d", prefixLen, target)
	forged, err := crypto.FlipBlock(ct, bs, target, masks)
	if err != nil {
		return nil, err
	}
	return &Forgery{Ciphertext: forged, BlockSize: bs, PrefixLen: prefixLen, UserData: userData}, nil
}

func passingMask(c byte, forbidden []byte) (byte, bool) {
	for m := 1; m < 256; m <<= 1 {
		if bytes.IndexByte(forbidden, c^byte(m)) < 0 {
			return byte(m), true
		}
	}
	return 0, false
}
