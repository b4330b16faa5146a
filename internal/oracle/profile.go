package oracle

import (
	"context"
	"crypto/cipher"
	"errors"
	"io"
	"strings"

	"github.com/samber/oops"

	"blockprobe/internal/crypto"
)

// ErrMetacharacter is returned when an email contains & or =.
var ErrMetacharacter = errors.New("email contains encoding metacharacter")

// ProfileFor encodes a user record for email.
func ProfileFor(email string) (string, error) {
	if strings.ContainsAny(email, "&=") {
		return "", oops.In("oracle").With("email_len", len(email)).Wrap(ErrMetacharacter)
	}
	return "email=" + email + "&uid=10&role=user", nil
}

// ParseKV decodes k=v pairs joined by &. Pairs without = are skipped; later keys win.
func ParseKV(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

// Profile ECB-encrypts ProfileFor(email) under a fixed key.
type Profile struct {
	block cipher.Block
}

func NewProfile(src io.Reader) (*Profile, error) {
	b, err := newKey(src)
	if err != nil {
		return nil, err
	}
	return &Profile{block: b}, nil
}

func (p *Profile) Encrypt(_ context.Context, email []byte) ([]byte, error) {
	rec, err := ProfileFor(string(email))
	if err != nil {
		return nil, err
	}
	return crypto.ECBEncrypt(p.block, []byte(rec)), nil
}

// Decode decrypts a record and parses its fields.
func (p *Profile) Decode(ciphertext []byte) (map[string]string, error) {
	pt, err := crypto.ECBDecrypt(p.block, ciphertext)
	if err != nil {
		return nil, err
	}
	return ParseKV(string(pt)), nil
}

// Verify reports whether the record decodes with role=admin.
func (p *Profile) Verify(_ context.Context, ciphertext []byte) (bool, error) {
	kv, err := p.Decode(ciphertext)
	if err != nil {
		return false, err
	}
	return kv["role"] == "admin", nil
}
