package oracle

import (
	"bytes"
	"context"
	"crypto/cipher"
	"io"
	"strings"

	"blockprobe/internal/crypto"
)

const (
	cookiePrefix = "comment1=cooking%20MCs;userdata="
	cookieSuffix = ";comment2=%20like%20a%20pound%20of%20bacon"
	adminMarker  = ";admin=true;"
)

var quoter = strings.NewReplacer(";", "%3B", "=", "%3D")

// QuoteUserData escapes the bytes that would let user data add fields to a cookie.
func QuoteUserData(s string) string { return quoter.Replace(s) }

// Cookie CBC-encrypts user data between a fixed prefix and suffix under a fixed key and IV.
type Cookie struct {
	block cipher.Block
	iv    []byte
}

func NewCookie(src io.Reader) (*Cookie, error) {
	b, err := newKey(src)
	if err != nil {
		return nil, err
	}
	iv, err := crypto.RandomBytes(src, b.BlockSize())
	if err != nil {
		return nil, err
	}
	return &Cookie{block: b, iv: iv}, nil
}

func (c *Cookie) Encrypt(_ context.Context, userData []byte) ([]byte, error) {
	pt := cookiePrefix + QuoteUserData(string(userData)) + cookieSuffix
	return crypto.CBCEncrypt(c.block, []byte(pt), c.iv)
}

// Verify reports whether the decrypted cookie grants admin.
func (c *Cookie) Verify(_ context.Context, ciphertext []byte) (bool, error) {
	pt, err := crypto.CBCDecrypt(c.block, ciphertext, c.iv)
	if err != nil {
		return false, err
	}
	return bytes.Contains(pt, []byte(adminMarker)), nil
}
