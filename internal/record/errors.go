package record

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated     = errors.New("record: truncated data")
	ErrLayoutShape   = errors.New("record: layout shape mismatch")
	ErrValueMismatch = errors.New("record: value count mismatch")
)

// TruncatedError reports how far a decode got before input ran out. It
// matches ErrTruncated under errors.Is.
type TruncatedError struct {
	Offset    int
	Remaining int
	Need      int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("record: truncated data at offset %d: %d bytes remain, need %d", e.Offset, e.Remaining, e.Need)
}

func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}

func truncated(buf []byte, offset, need int) error {
	remaining := len(buf) - offset
	if remaining < 0 {
		remaining = 0
	}
	return &TruncatedError{Offset: offset, Remaining: remaining, Need: need}
}
