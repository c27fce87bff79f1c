package grpcpermit

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/permit/model"
	"xdao.co/permit/nonce"
	"xdao.co/permit/permit"
)

// Server exposes one Orchestrator over the Permit gRPC service.
type Server struct {
	UnimplementedPermitServer
	Orchestrator *permit.Orchestrator
}

func (s *Server) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Orchestrator == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing orchestrator")
	}
	var req model.SubmitRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed submit request")
	}
	sub, err := model.ToSubmission(req)
	if err != nil {
		return nil, mapErr(err)
	}
	id, err := s.Orchestrator.Permit(sub)
	if err != nil {
		return nil, mapErr(err)
	}
	if !id.Defined() {
		return wrapperspb.String(""), nil
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Allowance(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Orchestrator == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing orchestrator")
	}
	var q model.AllowanceQuery
	if err := json.Unmarshal(in.GetValue(), &q); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed allowance query")
	}
	id, err := model.ToTokenID(q.TokenID)
	if err != nil {
		return nil, mapErr(err)
	}
	view := model.FromAllowance(s.Orchestrator.Allowance(q.Owner, q.Token, id, q.Spender))
	b, err := json.Marshal(view)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode allowance view")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) IsClaimed(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Orchestrator == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing orchestrator")
	}
	var q model.SaltQuery
	if err := json.Unmarshal(in.GetValue(), &q); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed salt query")
	}
	salt, err := nonce.ParseSalt(q.Salt)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed salt")
	}
	return wrapperspb.Bool(s.Orchestrator.IsClaimed(q.Owner, salt)), nil
}
