package crypto

// PKCS#7 padding over an arbitrary block size.

func checkBlockSize(blockSize int) {
	if blockSize <= 0 || blockSize > 0xff {
		panic("crypto: invalid block size")
	}
}

// PadLen returns how many padding bytes an n-byte input receives. Aligned inputs get a full block.
func PadLen(n, blockSize int) int {
	checkBlockSize(blockSize)
	return blockSize - n%blockSize
}

// Pad returns a padded copy of data; data itself is not modified.
func Pad(data []byte, blockSize int) []byte {
	p := PadLen(len(data), blockSize)
	out := make([]byte, len(data), len(data)+p)
	copy(out, data)
	for i := 0; i < p; i++ {
		out = append(out, byte(p))
	}
	return out
}

// padding reports the pad length of data if its trailing bytes form valid padding.
func padding(data []byte, blockSize int) (int, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return 0, false
	}
	p := int(data[len(data)-1])
	if p == 0 || p > blockSize {
		return 0, false
	}
	for _, b := range data[len(data)-p:] {
		if int(b) != p {
			return 0, false
		}
	}
	return p, true
}

// StripPadding removes padding when it is well formed and returns data unchanged otherwise.
// Use ValidatePadding when malformed input must be rejected.
func StripPadding(data []byte, blockSize int) []byte {
	checkBlockSize(blockSize)
	p, ok := padding(data, blockSize)
	if !ok {
		return data
	}
	return data[:len(data)-p]
}

// ValidatePadding returns data without its padding, or ErrInvalidPadding.
func ValidatePadding(data []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)
	p, ok := padding(data, blockSize)
	if !ok {
		return nil, ErrInvalidPadding
	}
	return data[:len(data)-p], nil
}
