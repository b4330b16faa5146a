package crypto

import "errors"

var (
	// ErrInvalidLength reports input that is not a whole number of blocks where one is required.
	ErrInvalidLength = errors.New("invalid length")
	// ErrInvalidPadding is the observable signal of strict padding validation.
	ErrInvalidPadding = errors.New("invalid padding")
)
