package crypto

// CBC tweak utilities for controlled plaintext modifications.
// For CBC, plaintext[i] = Dec(C[i]) XOR C[i-1]. Flipping bits of C[i-1] flips the same
// bits of plaintext[i] and garbles plaintext[i-1]. For the first block, tweak the IV.

// TweakIV applies a XOR mask to the IV to induce the same XOR in the first plaintext block.
func TweakIV(iv []byte, xorMask []byte) []byte {
	out := make([]byte, len(iv))
	for i := range iv {
		m := byte(0)
		if i < len(xorMask) { m = xorMask[i] }
		out[i] = iv[i] ^ m
	}
	return out
}

// FlipBlock returns a copy of ciphertext with mask XORed into the block preceding block
// target, so that block target decrypts with mask applied. Block 0 has no predecessor in
// ciphertext; use TweakIV for it.
func FlipBlock(ciphertext []byte, blockSize, target int, mask []byte) ([]byte, error) {
	checkBlockSize(blockSize)
	if target < 1 || len(mask) > blockSize || (target+1)*blockSize > len(ciphertext) {
		return nil, ErrInvalidLength
	}
	out := append([]byte(nil), ciphertext...)
	prev := out[(target-1)*blockSize : target*blockSize]
	for i, m := range mask {
		prev[i] ^= m
	}
	return out, nil
}
