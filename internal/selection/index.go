// SPDX-License-Identifier: MPL-2.0

package selection

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidIndex is the sentinel error wrapped by InvalidIndexError.
var ErrInvalidIndex = errors.New("invalid line index")

type (
	// Index is a 0-based position in a List.
	Index int

	// InvalidIndexError is returned when an Index is negative or past the end
	// of the list it is checked against.
	// It wraps ErrInvalidIndex for errors.Is() compatibility.
	InvalidIndexError struct {
		Value Index
		Len   int
	}
)

// noCursor marks the absent cursor of an empty list.
const noCursor Index = -1

// String returns the decimal string representation of the Index.
func (i Index) String() string { return strconv.Itoa(int(i)) }

// In returns an error unless the Index addresses one of n lines.
func (i Index) In(n int) error {
	if i < 0 || int(i) >= n {
		return &InvalidIndexError{Value: i, Len: n}
	}
	return nil
}

// clamp returns i bounded to [0, n-1]. n must be positive.
func (i Index) clamp(n int) Index {
	return max(0, min(i, Index(n-1)))
}

// Error implements the error interface for InvalidIndexError.
func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid line index %d: list has %d lines", e.Value, e.Len)
}

// Unwrap returns ErrInvalidIndex for errors.Is() compatibility.
func (e *InvalidIndexError) Unwrap() error { return ErrInvalidIndex }
