package attack

import (
	"bytes"
	"context"
	"sync"

	"blockprobe/internal/crypto"
	"blockprobe/pkg/logx"
)

// Options tunes ByteAtATime.
type Options struct {
	// Workers splits the 256-candidate search of each byte across goroutines. The oracle
	// must then be safe for concurrent use. Values below 1 mean sequential.
	Workers int
	// Filler is the byte used for alignment and probing, 'A' when zero.
	Filler byte
}

// Recovery is the outcome of a byte-at-a-time attack.
type Recovery struct {
	BlockSize int
	DataLen   int
	PrefixLen int
	Secret    []byte
	Queries   int64
}

// ByteAtATime recovers the secret suffix of an oracle computing ECB(key, prefix||input||suffix).
func ByteAtATime(ctx context.Context, o Oracle, opt Options) (*Recovery, error) {
	if opt.Filler == 0 {
		opt.Filler = 'A'
	}
	c := &countingOracle{o: o}
	bs, dataLen, err := DiscoverBlockSize(ctx, c)
	if err != nil {
		return nil, err
	}
	mode, err := DetectMode(ctx, c, bs)
	if err != nil {
		return nil, err
	}
	if mode != crypto.ModeECB {
		return nil, violated("oracle does not encrypt in ECB mode", "mode", mode)
	}
	if err := checkDeterministic(ctx, c, repeat(opt.Filler, 2*bs)); err != nil {
		return nil, err
	}
	prefixLen, err := DiscoverPrefixLen(ctx, c, bs)
	if err != nil {
		return nil, err
	}
	if prefixLen > dataLen {
		return nil, violated("prefix longer than oracle data", "prefix_len", prefixLen, "data_len", dataLen)
	}
	suffixLen := dataLen - prefixLen
	logx.Infof("byte-at-a-time: block size %d, prefix %d, suffix %d", bs, prefixLen, suffixLen)

	secret, err := recoverSuffix(ctx, aligned(c, bs, prefixLen, opt.Filler), bs, suffixLen, opt)
	if err != nil {
		return nil, err
	}
	return &Recovery{BlockSize: bs, DataLen: dataLen, PrefixLen: prefixLen, Secret: secret, Queries: c.n.Load()}, nil
}

// aligned hides the prefix: it pads the input up to the next block boundary and strips
// prefix and padding from the ciphertext, so callers see ECB(input||suffix).
func aligned(o Oracle, bs, prefixLen int, fill byte) Oracle {
	padLen := (bs - prefixLen%bs) % bs
	skip := prefixLen + padLen
	return OracleFunc(func(ctx context.Context, in []byte) ([]byte, error) {
		buf := append(repeat(fill, padLen), in...)
		out, err := o.Encrypt(ctx, buf)
		if err != nil {
			return nil, err
		}
		if len(out) < skip {
			return nil, violated("ciphertext shorter than prefix", "len", len(out), "prefix", skip)
		}
		return out[skip:], nil
	})
}

func recoverSuffix(ctx context.Context, o Oracle, bs, suffixLen int, opt Options) ([]byte, error) {
	guessed := make([]byte, 0, suffixLen)
	for len(guessed) < suffixLen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		filler := repeat(opt.Filler, bs-1-len(guessed)%bs)
		idx := len(guessed) / bs
		ref, err := o.Encrypt(ctx, filler)
		if err != nil {
			return nil, err
		}
		if len(ref) < (idx+1)*bs {
			return nil, violated("reference ciphertext too short", "len", len(ref), "block", idx)
		}
		probe := make([]byte, 0, len(filler)+len(guessed)+1)
		probe = append(append(append(probe, filler...), guessed...), 0)
		b, err := matchCandidate(ctx, o, probe, idx, bs, block(ref, idx, bs), opt.Workers)
		if err != nil {
			return nil, err
		}
		guessed = append(guessed, b)
	}
	return guessed, nil
}

// matchCandidate tries every value of the last probe byte and returns the single one whose
// block idx equals target.
func matchCandidate(ctx context.Context, o Oracle, probe []byte, idx, bs int, target []byte, workers int) (byte, error) {
	if workers < 1 {
		workers = 1
	}
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		matches  []byte
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			buf := append([]byte(nil), probe...)
			for c := start; c < 256; c += workers {
				buf[len(buf)-1] = byte(c)
				out, err := o.Encrypt(ctx, buf)
				if err == nil && len(out) < (idx+1)*bs {
					err = violated("candidate ciphertext too short", "len", len(out), "block", idx)
				}
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				if bytes.Equal(block(out, idx, bs), target) {
					matches = append(matches, byte(c))
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	if firstErr != nil {
		return 0, firstErr
	}
	if len(matches) != 1 {
		return 0, violated("no unique candidate byte", "matches", len(matches), "offset", len(probe)-1)
	}
	return matches[0], nil
}
