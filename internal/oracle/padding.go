package oracle

import (
	"context"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"io"
	"sync"

	"blockprobe/internal/crypto"
)

// Secrets is the default set of base64 lines the padding victim encrypts.
var Secrets = []string{
	"MDAwMDAwTm93IHRoYXQgdGhlIHBhcnR5IGlzIGp1bXBpbmc=",
	"MDAwMDAxV2l0aCB0aGUgYmFzcyBraWNrZWQgaW4gYW5kIHRoZSBWZWdhJ3MgYXJlIHB1bXBpbic=",
	"MDAwMDAyUXVpY2sgdG8gdGhlIHBvaW50LCB0byB0aGUgcG9pbnQsIG5vIGZha2luZw==",
	"MDAwMDAzQ29va2luZyBNQydzIGxpa2UgYSBwb3VuZCBvZiBiYWNvbg==",
	"MDAwMDA0QnVybmluZyAnZW0sIGlmIHlvdSBhaW4ndCBxdWljayBhbmQgbmltYmxl",
	"MDAwMDA1SSBnbyBjcmF6eSB3aGVuIEkgaGVhciBhIGN5bWJhbA==",
	"MDAwMDA2QW5kIGEgaGlnaCBoYXQgd2l0aCBhIHNvdXBlZCB1cCB0ZW1wbw==",
	"MDAwMDA3SSdtIG9uIGEgcm9sbCwgaXQncyB0aW1lIHRvIGdvIHNvbG8=",
	"MDAwMDA4b2xsaW4nIGluIG15IGZpdmUgcG9pbnQgb2g=",
	"MDAwMDA5aXRoIG15IHJhZy10b3AgZG93biBzbyBteSBoYWlyIGNhbiBibG93",
}

// Padding CBC-encrypts one of its secret lines under a fresh IV per challenge and answers
// whether arbitrary ciphertexts decrypt to valid padding.
type Padding struct {
	block cipher.Block
	lines [][]byte
	mu    sync.Mutex
	src   io.Reader
}

// NewPadding builds the victim; lines defaults to the decoded Secrets.
func NewPadding(src io.Reader, lines [][]byte) (*Padding, error) {
	b, err := newKey(src)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		for _, s := range Secrets {
			l, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, err
			}
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, errors.New("oracle: padding victim needs at least one line")
	}
	return &Padding{block: b, lines: lines, src: src}, nil
}

// Challenge encrypts a randomly chosen line and returns the ciphertext and IV.
func (p *Padding) Challenge(_ context.Context) (ciphertext, iv []byte, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, err := crypto.RandomIntn(p.src, len(p.lines))
	if err != nil {
		return nil, nil, err
	}
	if iv, err = crypto.RandomBytes(p.src, p.block.BlockSize()); err != nil {
		return nil, nil, err
	}
	ciphertext, err = crypto.CBCEncrypt(p.block, p.lines[i], iv)
	return ciphertext, iv, err
}

// ValidPadding decrypts and reports whether the padding is well formed. Malformed lengths
// are errors, not a false answer.
func (p *Padding) ValidPadding(_ context.Context, ciphertext, iv []byte) (bool, error) {
	pt, err := crypto.CBCDecryptRaw(p.block, ciphertext, iv)
	if err != nil {
		return false, err
	}
	_, err = crypto.ValidatePadding(pt, p.block.BlockSize())
	return err == nil, nil
}

// Contains reports whether line is one of the victim's secrets.
func (p *Padding) Contains(line []byte) bool {
	for _, l := range p.lines {
		if string(l) == string(line) {
			return true
		}
	}
	return false
}
