package model

import (
	"errors"
	"fmt"

	"xdao.co/permit/allowance"
	"xdao.co/permit/nonce"
	"xdao.co/permit/permit"
	"xdao.co/permit/unhinged"
)

type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrExpired          ErrorCode = "EXPIRED"
	ErrWrongContext     ErrorCode = "WRONG_CONTEXT"
	ErrInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrAlreadyClaimed   ErrorCode = "ALREADY_CLAIMED"
	ErrInvalidProof     ErrorCode = "INVALID_PROOF"
	ErrRejected         ErrorCode = "REJECTED"
	ErrInternal         ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human message.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// FromError projects an orchestrator error onto the boundary taxonomy.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, permit.ErrSignatureExpired), errors.Is(err, permit.ErrDeadlineExceeded):
		return NewError(ErrExpired, err.Error())
	case errors.Is(err, permit.ErrWrongContext):
		return NewError(ErrWrongContext, err.Error())
	case errors.Is(err, permit.ErrInvalidSignature):
		return NewError(ErrInvalidSignature, err.Error())
	case errors.Is(err, nonce.ErrAlreadyClaimed):
		return NewError(ErrAlreadyClaimed, err.Error())
	case errors.Is(err, permit.ErrMissingProof),
		errors.Is(err, unhinged.ErrInvalidProof),
		errors.Is(err, unhinged.ErrProofMismatch):
		return NewError(ErrInvalidProof, err.Error())
	case errors.Is(err, permit.ErrEmptyBatch),
		errors.Is(err, permit.ErrInvalidWitnessSchema):
		return NewError(ErrInvalidRequest, err.Error())
	case errors.Is(err, allowance.ErrInsufficientAllowance),
		errors.Is(err, allowance.ErrAllowanceExpired),
		errors.Is(err, allowance.ErrAllowanceLocked),
		errors.Is(err, allowance.ErrNotLocked),
		permit.IsKind(err, permit.KindBusiness):
		return NewError(ErrRejected, err.Error())
	case permit.IsKind(err, permit.KindInput):
		return NewError(ErrInvalidRequest, err.Error())
	default:
		return NewError(ErrInternal, err.Error())
	}
}
