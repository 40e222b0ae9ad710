package polyline

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedEncoding = errors.New("malformed polyline encoding")
	ErrInvalidPrecision  = errors.New("invalid polyline precision")
	ErrUnencodable       = errors.New("coordinate too large to encode")
)

// MalformedEncodingError reports where decoding stopped
type MalformedEncodingError struct {
	Offset int
	Reason string
}

func (e *MalformedEncodingError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", ErrMalformedEncoding, e.Offset, e.Reason)
}

func (e *MalformedEncodingError) Unwrap() error {
	return ErrMalformedEncoding
}
