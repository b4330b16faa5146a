package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/samber/oops"
)

// NewAES returns the single-block AES primitive for key.
func NewAES(key []byte) (cipher.Block, error) {
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, oops.In("crypto").With("key_len", len(key)).Wrapf(err, "aes")
	}
	return b, nil
}

type ecb struct{ b cipher.Block }

func (x ecb) BlockSize() int { return x.b.BlockSize() }

func (x ecb) cryptBlocks(dst, src []byte, crypt func(dst, src []byte)) {
	n := x.BlockSize()
	if len(src)%n != 0 {
		panic("crypto/ecb: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("crypto/ecb: output smaller than input")
	}
	for len(src) > 0 {
		crypt(dst[:n], src[:n])
		dst = dst[n:]
		src = src[n:]
	}
}

type ecbEncrypter struct{ ecb }

// NewECBEncrypter returns a BlockMode that encrypts every block independently.
func NewECBEncrypter(b cipher.Block) cipher.BlockMode { return ecbEncrypter{ecb{b}} }

func (m ecbEncrypter) CryptBlocks(dst, src []byte) { m.cryptBlocks(dst, src, m.b.Encrypt) }

type ecbDecrypter struct{ ecb }

// NewECBDecrypter returns a BlockMode that decrypts every block independently.
func NewECBDecrypter(b cipher.Block) cipher.BlockMode { return ecbDecrypter{ecb{b}} }

func (m ecbDecrypter) CryptBlocks(dst, src []byte) { m.cryptBlocks(dst, src, m.b.Decrypt) }

type cbc struct {
	b    cipher.Block
	prev []byte
}

func newCBC(b cipher.Block, iv []byte) cbc {
	if len(iv) != b.BlockSize() {
		panic("crypto/cbc: IV length must equal block size")
	}
	return cbc{b: b, prev: append([]byte(nil), iv...)}
}

func (x *cbc) BlockSize() int { return x.b.BlockSize() }

func (x *cbc) check(dst, src []byte) {
	if len(src)%x.BlockSize() != 0 {
		panic("crypto/cbc: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("crypto/cbc: output smaller than input")
	}
}

type cbcEncrypter struct{ cbc }

// NewCBCEncrypter returns a BlockMode that chains each block with the previous ciphertext
// block, starting from iv. The chaining state carries over between CryptBlocks calls.
func NewCBCEncrypter(b cipher.Block, iv []byte) cipher.BlockMode {
	return &cbcEncrypter{newCBC(b, iv)}
}

func (m *cbcEncrypter) CryptBlocks(dst, src []byte) {
	m.check(dst, src)
	n := m.BlockSize()
	buf := make([]byte, n)
	for len(src) > 0 {
		xorBytes(buf, src[:n], m.prev)
		m.b.Encrypt(dst[:n], buf)
		copy(m.prev, dst[:n])
		dst = dst[n:]
		src = src[n:]
	}
}

type cbcDecrypter struct{ cbc }

// NewCBCDecrypter returns the inverse of NewCBCEncrypter.
func NewCBCDecrypter(b cipher.Block, iv []byte) cipher.BlockMode {
	return &cbcDecrypter{newCBC(b, iv)}
}

func (m *cbcDecrypter) CryptBlocks(dst, src []byte) {
	m.check(dst, src)
	n := m.BlockSize()
	buf := make([]byte, n)
	ct := make([]byte, n)
	for len(src) > 0 {
		// src and dst may alias, keep the ciphertext block for chaining
		copy(ct, src[:n])
		m.b.Decrypt(buf, ct)
		xorBytes(dst[:n], buf, m.prev)
		copy(m.prev, ct)
		dst = dst[n:]
		src = src[n:]
	}
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

func checkCiphertext(b cipher.Block, ciphertext []byte) error {
	n := b.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%n != 0 {
		return oops.In("crypto").With("len", len(ciphertext), "block_size", n).Wrapf(ErrInvalidLength, "ciphertext")
	}
	return nil
}

func checkIV(b cipher.Block, iv []byte) error {
	if len(iv) != b.BlockSize() {
		return oops.In("crypto").With("iv_len", len(iv), "block_size", b.BlockSize()).Wrapf(ErrInvalidLength, "iv")
	}
	return nil
}

// ECBEncrypt pads plaintext and encrypts each block independently.
func ECBEncrypt(b cipher.Block, plaintext []byte) []byte {
	buf := Pad(plaintext, b.BlockSize())
	NewECBEncrypter(b).CryptBlocks(buf, buf)
	return buf
}

// ECBDecrypt decrypts each block and strips padding on a best-effort basis.
func ECBDecrypt(b cipher.Block, ciphertext []byte) ([]byte, error) {
	if err := checkCiphertext(b, ciphertext); err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	NewECBDecrypter(b).CryptBlocks(out, ciphertext)
	return StripPadding(out, b.BlockSize()), nil
}

// CBCEncrypt pads plaintext and encrypts it in CBC mode under iv.
func CBCEncrypt(b cipher.Block, plaintext, iv []byte) ([]byte, error) {
	if err := checkIV(b, iv); err != nil {
		return nil, err
	}
	buf := Pad(plaintext, b.BlockSize())
	NewCBCEncrypter(b, iv).CryptBlocks(buf, buf)
	return buf, nil
}

// CBCDecryptRaw decrypts ciphertext in CBC mode and leaves any padding in place.
func CBCDecryptRaw(b cipher.Block, ciphertext, iv []byte) ([]byte, error) {
	if err := checkIV(b, iv); err != nil {
		return nil, err
	}
	if err := checkCiphertext(b, ciphertext); err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	NewCBCDecrypter(b, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// CBCDecrypt decrypts ciphertext in CBC mode and strips padding on a best-effort basis.
func CBCDecrypt(b cipher.Block, ciphertext, iv []byte) ([]byte, error) {
	out, err := CBCDecryptRaw(b, ciphertext, iv)
	if err != nil {
		return nil, err
	}
	return StripPadding(out, b.BlockSize()), nil
}
