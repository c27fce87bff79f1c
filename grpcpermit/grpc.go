package grpcpermit

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// PermitServer is the server API for the Permit gRPC service.
//
// We intentionally use protobuf well-known wrapper types so this package does
// not require a protoc/codegen toolchain; structured payloads cross as the
// canonical JSON boundary types from the model package.
//
// Proto definition: permit.proto.
type PermitServer interface {
	Submit(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Allowance(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	IsClaimed(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedPermitServer can be embedded to have forward compatible implementations.
type UnimplementedPermitServer struct{}

func (UnimplementedPermitServer) Submit(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Submit not implemented")
}
func (UnimplementedPermitServer) Allowance(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Allowance not implemented")
}
func (UnimplementedPermitServer) IsClaimed(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method IsClaimed not implemented")
}

// RegisterPermitServer registers the Permit service on a gRPC server.
func RegisterPermitServer(s grpc.ServiceRegistrar, srv PermitServer) {
	s.RegisterService(&Permit_ServiceDesc, srv)
}

// PermitClient is the client API for the Permit gRPC service.
type PermitClient interface {
	Submit(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Allowance(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	IsClaimed(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type permitClient struct{ cc grpc.ClientConnInterface }

func NewPermitClient(cc grpc.ClientConnInterface) PermitClient { return &permitClient{cc: cc} }

func (c *permitClient) Submit(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	err := c.cc.Invoke(ctx, "/xdao.permit.v1.Permit/Submit", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *permitClient) Allowance(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/xdao.permit.v1.Permit/Allowance", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *permitClient) IsClaimed(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	err := c.cc.Invoke(ctx, "/xdao.permit.v1.Permit/IsClaimed", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _Permit_Submit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PermitServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/xdao.permit.v1.Permit/Submit"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PermitServer).Submit(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Permit_Allowance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PermitServer).Allowance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/xdao.permit.v1.Permit/Allowance"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PermitServer).Allowance(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Permit_IsClaimed_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PermitServer).IsClaimed(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/xdao.permit.v1.Permit/IsClaimed"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PermitServer).IsClaimed(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Permit_ServiceDesc is the grpc.ServiceDesc for Permit service.
var Permit_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "xdao.permit.v1.Permit",
	HandlerType: (*PermitServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: _Permit_Submit_Handler},
		{MethodName: "Allowance", Handler: _Permit_Allowance_Handler},
		{MethodName: "IsClaimed", Handler: _Permit_IsClaimed_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "permit.proto",
}
