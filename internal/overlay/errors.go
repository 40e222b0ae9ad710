package overlay

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange   = errors.New("vertex index out of range")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)

// IndexOutOfRangeError is returned by vertex mutations with a bad index
type IndexOutOfRangeError struct {
	Op     string
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %s: index %d, length %d", e.Op, ErrIndexOutOfRange, e.Index, e.Length)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}
