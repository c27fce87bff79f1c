package journal

import "errors"

var (
	ErrNotFound    = errors.New("journal: not found")
	ErrInvalidCID  = errors.New("journal: invalid cid")
	ErrCIDMismatch = errors.New("journal: cid mismatch")
	ErrImmutable   = errors.New("journal: immutable receipt mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
