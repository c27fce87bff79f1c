package grpcpermit

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/permit/model"
)

// The boundary taxonomy travels twice: as the closest gRPC status code for
// generic clients, and as a "CODE: message" status message so our own client
// can recover the exact model.ErrorCode.

func grpcCode(code model.ErrorCode) codes.Code {
	switch code {
	case model.ErrInvalidRequest:
		return codes.InvalidArgument
	case model.ErrExpired:
		return codes.DeadlineExceeded
	case model.ErrWrongContext:
		return codes.FailedPrecondition
	case model.ErrInvalidSignature:
		return codes.Unauthenticated
	case model.ErrAlreadyClaimed:
		return codes.AlreadyExists
	case model.ErrInvalidProof:
		return codes.PermissionDenied
	case model.ErrRejected:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

func modelCode(code codes.Code) model.ErrorCode {
	switch code {
	case codes.InvalidArgument:
		return model.ErrInvalidRequest
	case codes.DeadlineExceeded:
		return model.ErrExpired
	case codes.FailedPrecondition:
		return model.ErrWrongContext
	case codes.Unauthenticated:
		return model.ErrInvalidSignature
	case codes.AlreadyExists:
		return model.ErrAlreadyClaimed
	case codes.PermissionDenied:
		return model.ErrInvalidProof
	case codes.Aborted:
		return model.ErrRejected
	default:
		return model.ErrInternal
	}
}

// mapErr projects an orchestrator error onto a gRPC status for the wire.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	ce := model.FromError(err)
	return status.Error(grpcCode(ce.Code), ce.Error())
}

// mapRPC recovers the boundary error from a gRPC status on the client side.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	if code, rest, found := strings.Cut(msg, ": "); found {
		switch model.ErrorCode(code) {
		case model.ErrInvalidRequest, model.ErrExpired, model.ErrWrongContext,
			model.ErrInvalidSignature, model.ErrAlreadyClaimed,
			model.ErrInvalidProof, model.ErrRejected, model.ErrInternal:
			return model.NewError(model.ErrorCode(code), rest)
		}
	}
	return model.NewError(modelCode(st.Code()), msg)
}
