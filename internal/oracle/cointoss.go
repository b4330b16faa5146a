package oracle

import (
	"context"
	"io"
	"sync"

	"blockprobe/internal/crypto"
)

// CoinToss encrypts under a fresh key every call, wrapping the input in 5 to 10 random bytes
// on each side and choosing ECB or CBC at random.
type CoinToss struct {
	mu  sync.Mutex
	src io.Reader
}

func NewCoinToss(src io.Reader) *CoinToss { return &CoinToss{src: src} }

func (c *CoinToss) Encrypt(ctx context.Context, input []byte) ([]byte, error) {
	ct, _, err := c.EncryptLeaky(ctx, input)
	return ct, err
}

// EncryptLeaky is Encrypt that also reports the mode it picked.
func (c *CoinToss) EncryptLeaky(_ context.Context, input []byte) ([]byte, crypto.Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := newKey(c.src)
	if err != nil {
		return nil, "", err
	}
	wrap := func() ([]byte, error) {
		n, err := crypto.RandomRange(c.src, 5, 10)
		if err != nil {
			return nil, err
		}
		return crypto.RandomBytes(c.src, n)
	}
	head, err := wrap()
	if err != nil {
		return nil, "", err
	}
	tail, err := wrap()
	if err != nil {
		return nil, "", err
	}
	pt := append(append(head, input...), tail...)
	coin, err := crypto.RandomIntn(c.src, 2)
	if err != nil {
		return nil, "", err
	}
	if coin == 0 {
		return crypto.ECBEncrypt(b, pt), crypto.ModeECB, nil
	}
	iv, err := crypto.RandomBytes(c.src, b.BlockSize())
	if err != nil {
		return nil, "", err
	}
	ct, err := crypto.CBCEncrypt(b, pt, iv)
	return ct, crypto.ModeCBC, err
}
