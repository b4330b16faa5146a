package crypto

// BlockCounts maps block content to the number of times it occurs.
type BlockCounts map[string]int

// CountBlocks splits data into blockSize chunks and counts exact repeats. A trailing partial block is ignored.
func CountBlocks(data []byte, blockSize int) BlockCounts {
	checkBlockSize(blockSize)
	c := BlockCounts{}
	for i := 0; i+blockSize <= len(data); i += blockSize {
		c[string(data[i:i+blockSize])]++
	}
	return c
}

func (c BlockCounts) MaxCount() int {
	m := 0
	for _, n := range c {
		if n > m {
			m = n
		}
	}
	return m
}

// Repeats is the number of blocks that duplicate an earlier block.
func (c BlockCounts) Repeats() int {
	r := 0
	for _, n := range c {
		r += n - 1
	}
	return r
}

// IsECB reports whether data contains a repeated block. ECB maps equal plaintext blocks to
// equal ciphertext blocks; chained modes do not.
func IsECB(data []byte, blockSize int) bool {
	return CountBlocks(data, blockSize).MaxCount() > 1
}

// DetectECB returns the index of the candidate with the highest block repeat count and that count.
// It returns -1 for an empty list.
func DetectECB(candidates [][]byte, blockSize int) (int, int) {
	best, bestCount := -1, 0
	for i, c := range candidates {
		if n := CountBlocks(c, blockSize).MaxCount(); best < 0 || n > bestCount {
			best, bestCount = i, n
		}
	}
	return best, bestCount
}

// Mode names a block chaining mode.
type Mode string

const (
	ModeECB Mode = "ECB"
	ModeCBC Mode = "CBC"
)
