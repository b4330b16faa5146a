package attack

import (
	"context"

	"github.com/samber/oops"

	"blockprobe/internal/crypto"
	"blockprobe/pkg/logx"
)

// CutPasteOptions names the value to forge and the value it replaces at the end of the
// encoded record.
type CutPasteOptions struct {
	Privileged string
	Replaced   string
	Filler     byte
}

// CutAndPaste forges an ECB record ending in opt.Privileged instead of opt.Replaced by
// splicing ciphertext blocks from two encryptions.
func CutAndPaste(ctx context.Context, o Oracle, opt CutPasteOptions) (*Forgery, error) {
	if opt.Privileged == "" {
		opt.Privileged = "admin"
	}
	if opt.Replaced == "" {
		opt.Replaced = "user"
	}
	if opt.Filler == 0 {
		opt.Filler = 'A'
	}
	bs, dataLen, err := DiscoverBlockSize(ctx, o)
	if err != nil {
		return nil, err
	}
	prefixLen, err := DiscoverPrefixLen(ctx, o, bs)
	if err != nil {
		return nil, err
	}
	if dataLen < prefixLen+len(opt.Replaced) {
		return nil, violated("record too short for replaced value", "data_len", dataLen)
	}

	// email A puts the padded privileged value at the start of a block
	align := (bs - prefixLen%bs) % bs
	priv := crypto.Pad([]byte(opt.Privileged), bs)
	ctA, err := o.Encrypt(ctx, append(repeat(opt.Filler, align), priv...))
	if err != nil {
		return nil, err
	}
	start := prefixLen + align
	if len(ctA) < start+len(priv) {
		return nil, violated("ciphertext too short", "len", len(ctA))
	}
	privBlocks := ctA[start : start+len(priv)]

	// email B pushes the replaced value to the start of the last block
	e := ((len(opt.Replaced)-dataLen)%bs + bs) % bs
	ctB, err := o.Encrypt(ctx, repeat(opt.Filler, e))
	if err != nil {
		return nil, err
	}
	cut := dataLen + e - len(opt.Replaced)
	if len(ctB) < cut {
		return nil, violated("ciphertext too short", "len", len(ctB))
	}
	logx.Debugf("cut-and-paste: block size %d, email offset %d, cut at %d", bs, prefixLen, cut)

	forged := make([]byte, 0, cut+len(privBlocks))
	forged = append(append(forged, ctB[:cut]...), privBlocks...)
	if len(forged)%bs != 0 {
		return nil, oops.In("attack").With("len", len(forged)).Wrapf(crypto.ErrInvalidLength, "forged ciphertext not aligned")
	}
	return &Forgery{Ciphertext: forged, BlockSize: bs, PrefixLen: prefixLen, UserData: repeat(opt.Filler, e)}, nil
}
