package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both "does not exist" and "belongs to someone else".
// The two cases must be indistinguishable to the caller.
var ErrNotFound = errors.New("not found")

// ErrInvalid marks validation failures in request data.
var ErrInvalid = errors.New("invalid request")

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Invalidf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalid)...)
}
