package allowance

import "errors"

var (
	ErrInsufficientAllowance = errors.New("allowance: insufficient allowance")
	ErrAllowanceExpired      = errors.New("allowance: allowance expired")
	ErrAllowanceLocked       = errors.New("allowance: allowance locked")
	ErrNotLocked             = errors.New("allowance: allowance not locked")
	ErrTransferMode          = errors.New("allowance: transfer operations are not state transitions")
)
