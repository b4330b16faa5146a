package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"blockprobe/internal/crypto"
)

func TestProfileFor(t *testing.T) {
	got, err := ProfileFor("foo@bar.com")
	if err != nil || got != "email=foo@bar.com&uid=10&role=user" { t.Fatalf("got %q, %v", got, err) }
	for _, bad := range []string{"foo@bar.com&role=admin", "a=b", "&"} {
		if _, err := ProfileFor(bad); !errors.Is(err, ErrMetacharacter) { t.Fatalf("%q: got %v", bad, err) }
	}
}

func TestParseKV(t *testing.T) {
	kv := ParseKV("foo=bar&baz=qux&zap=zazzle&junk&role=user&role=admin")
	want := map[string]string{"foo": "bar", "baz": "qux", "zap": "zazzle", "role": "admin"}
	if len(kv) != len(want) { t.Fatalf("got %v", kv) }
	for k, v := range want {
		if kv[k] != v { t.Fatalf("%s=%q, want %q", k, kv[k], v) }
	}
}

func TestQuoteUserData(t *testing.T) {
	if got := QuoteUserData(";admin=true;"); got != "%3Badmin%3Dtrue%3B" { t.Fatalf("got %q", got) }
}

func TestCookieRejectsInjectedAdmin(t *testing.T) {
	c, err := NewCookie(crypto.NewSource([]byte("cookie")))
	if err != nil { t.Fatal(err) }
	ct, err := c.Encrypt(context.Background(), []byte("x;admin=true;y"))
	if err != nil { t.Fatal(err) }
	if ok, err := c.Verify(context.Background(), ct); err != nil || ok { t.Fatalf("accepted=%v err=%v", ok, err) }
	if _, err := c.Verify(context.Background(), ct[:len(ct)-1]); !errors.Is(err, crypto.ErrInvalidLength) { t.Fatalf("got %v", err) }
}

func TestProfileRoundTrip(t *testing.T) {
	p, err := NewProfile(crypto.NewSource([]byte("profile")))
	if err != nil { t.Fatal(err) }
	ct, err := p.Encrypt(context.Background(), []byte("foo@bar.com"))
	if err != nil { t.Fatal(err) }
	kv, err := p.Decode(ct)
	if err != nil { t.Fatal(err) }
	if kv["email"] != "foo@bar.com" || kv["role"] != "user" { t.Fatalf("got %v", kv) }
	if ok, _ := p.Verify(context.Background(), ct); ok { t.Fatal("plain user accepted as admin") }
}

func TestSuffixECBPrefixBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, err := NewSuffixECB(crypto.NewSource([]byte(fmt.Sprintf("bounds-%d", i))), SuffixConfig{MinPrefix: 2, MaxPrefix: 31})
		if err != nil { t.Fatal(err) }
		if n := s.PrefixLen(); n < 2 || n > 31 { t.Fatalf("prefix length %d out of range", n) }
		if !bytes.Equal(s.Suffix(), DefaultSuffix()) { t.Fatal("default suffix not used") }
	}
}

func TestDefaultSuffix(t *testing.T) {
	s := DefaultSuffix()
	if len(s) != 138 || !bytes.HasPrefix(s, []byte("Rollin' in my 5.0")) { t.Fatalf("got %d bytes: %q", len(s), s) }
}

func TestSeededVictimsReproducible(t *testing.T) {
	a, err := NewVictims(crypto.NewSource([]byte("same")))
	if err != nil { t.Fatal(err) }
	b, err := NewVictims(crypto.NewSource([]byte("same")))
	if err != nil { t.Fatal(err) }
	ctx := context.Background()
	x, _ := a.Suffix.Encrypt(ctx, []byte("hello"))
	y, _ := b.Suffix.Encrypt(ctx, []byte("hello"))
	if !bytes.Equal(x, y) { t.Fatal("same seed gave different victims") }
	x, _ = a.Cookie.Encrypt(ctx, []byte("hello"))
	y, _ = b.Cookie.Encrypt(ctx, []byte("hello"))
	if !bytes.Equal(x, y) { t.Fatal("same seed gave different cookies") }
}

func TestCoinTossModes(t *testing.T) {
	c := NewCoinToss(crypto.NewSource([]byte("coin")))
	seen := map[crypto.Mode]int{}
	for i := 0; i < 40; i++ {
		ct, m, err := c.EncryptLeaky(context.Background(), make([]byte, 64))
		if err != nil { t.Fatal(err) }
		if len(ct)%16 != 0 || len(ct) < 80 { t.Fatalf("ciphertext length %d", len(ct)) }
		seen[m]++
	}
	if seen[crypto.ModeECB] == 0 || seen[crypto.ModeCBC] == 0 { t.Fatalf("modes not mixed: %v", seen) }
}

func TestPaddingChallenge(t *testing.T) {
	p, err := NewPadding(crypto.NewSource([]byte("padding")), nil)
	if err != nil { t.Fatal(err) }
	ctx := context.Background()
	ct, iv, err := p.Challenge(ctx)
	if err != nil { t.Fatal(err) }
	if ok, err := p.ValidPadding(ctx, ct, iv); err != nil || !ok { t.Fatalf("own challenge rejected: %v", err) }
	if _, err := p.ValidPadding(ctx, ct[:len(ct)-3], iv); !errors.Is(err, crypto.ErrInvalidLength) { t.Fatalf("got %v", err) }
	if _, err := p.ValidPadding(ctx, ct, iv[:8]); !errors.Is(err, crypto.ErrInvalidLength) { t.Fatalf("got %v", err) }
}

func TestPaddingRejectsZeroedPadByte(t *testing.T) {
	line := []byte("fifteen bytes!!")
	p, err := NewPadding(crypto.NewSource([]byte("zero")), [][]byte{line})
	if err != nil { t.Fatal(err) }
	ctx := context.Background()
	ct, iv, err := p.Challenge(ctx)
	if err != nil { t.Fatal(err) }
	// plaintext ends in a single \x01; flipping it to \x00 through the IV must be rejected
	forged := append([]byte(nil), iv...)
	forged[15] ^= 0x01
	if ok, err := p.ValidPadding(ctx, ct, forged); err != nil || ok { t.Fatalf("valid=%v err=%v", ok, err) }
}

func TestNewPaddingNeedsLines(t *testing.T) {
	if _, err := NewPadding(crypto.NewSource([]byte("x")), [][]byte{}); err == nil { t.Fatal("expected error") }
}
