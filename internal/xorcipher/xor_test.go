package xorcipher

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil { t.Fatal(err) }
	return b
}

const prose = `When the harbour lights came on that evening the fishermen were still mending their nets
along the old stone wall. Nobody spoke much. The wind had turned in the afternoon and the boats that
went out early had come back with half a catch and a story about the weather beyond the point. An old
woman sold bread from a cart near the chapel, and the children ran between the stacks of crates until
their mothers called them in for supper. Later, when the tide was high and the street was quiet, the
keeper of the lighthouse walked down to the water and watched the beam sweep across the bay, counting
the seconds between each turn the way his father had taught him many years before. He thought about
the ships that had passed this coast in the long winters, and about the sailors who had trusted a
light they could not see the source of, and he wondered whether anyone would remember the name of the
man who kept it burning.`

func TestFixedXOR(t *testing.T) {
	got, err := FixedXOR(mustHex(t, "1c0111001f010100061a024b53535009181c"), mustHex(t, "686974207468652062756c6c277320657965"))
	if err != nil { t.Fatal(err) }
	if !bytes.Equal(got, mustHex(t, "746865206b696420646f6e277420706c6179")) { t.Fatalf("got %x", got) }
	if _, err := FixedXOR([]byte{1}, []byte{1, 2}); !errors.Is(err, ErrLengthMismatch) { t.Fatalf("got %v", err) }
}

func TestRepeatingKeyXOR(t *testing.T) {
	in := "Burning 'em, if you ain't quick and nimble\nI go crazy when I hear a cymbal"
	want := "0b3637272a2b2e63622c2e69692a23693a2a3c6324202d623d63343c2a26226324272765272a282b2f20430a652e2c652a3124333a653e2b2027630c692b20283165286326302e27282f"
	if got := hex.EncodeToString(RepeatingKeyXOR([]byte(in), []byte("ICE"))); got != want { t.Fatalf("got %s", got) }
}

func TestHammingDistance(t *testing.T) {
	d, err := HammingDistance([]byte("this is a test"), []byte("wokka wokka!!!"))
	if err != nil || d != 37 { t.Fatalf("got %d, %v", d, err) }
}

func TestGuessSingleByte(t *testing.T) {
	c := GuessSingleByte(mustHex(t, "1b37373331363f78151b7f2b783431333d78397828372d363c78373e783a393b3736"))
	if len(c) == 0 { t.Fatal("no candidates") }
	if string(c[0].Plaintext) != "Cooking MC's like a pound of bacon" || c[0].Key != 'X' { t.Fatalf("got key %q: %q", c[0].Key, c[0].Plaintext) }
}

func TestDetectSingleByte(t *testing.T) {
	cts := [][]byte{
		RepeatingKeyXOR([]byte("Now that the party is jumping\n"), []byte{0x91, 0x13, 0xe2, 0x5c, 0x07}),
		RepeatingKeyXOR([]byte("an unrelated line of garbage!\n"), []byte{0x3a, 0xc4, 0x88}),
		SingleByteXOR([]byte("Now that the party is jumping\n"), '5'),
		RepeatingKeyXOR([]byte("more noise in the haystack...\n"), []byte{0xde, 0xad, 0xbe, 0xef}),
	}
	c := DetectSingleByte(cts)
	if len(c) == 0 { t.Fatal("no candidates") }
	if c[0].Index != 2 || c[0].Key != '5' { t.Fatalf("got index %d key %q: %q", c[0].Index, c[0].Key, c[0].Plaintext) }
}

func TestBreakRepeatingKey(t *testing.T) {
	for _, key := range []string{"ICE", "Terminator"} {
		ct := RepeatingKeyXOR([]byte(prose), []byte(key))
		b, err := BreakRepeatingKey(ct)
		if err != nil { t.Fatalf("%s: %v", key, err) }
		if string(b.Plaintext) != prose { t.Fatalf("%s: recovered key %q", key, b.Key) }
		if !bytes.Equal(RepeatingKeyXOR(ct, b.Key), b.Plaintext) { t.Fatalf("%s: key does not reproduce plaintext", key) }
	}
}

func TestBreakRepeatingKeyTooShort(t *testing.T) {
	if _, err := BreakRepeatingKey([]byte{1, 2, 3}); !errors.Is(err, ErrNoCandidate) { t.Fatalf("got %v", err) }
}
