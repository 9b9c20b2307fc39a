// Package editorv1 defines the ohmylink.editor.v1.ProfileEditor gRPC service.
//
// Payloads are google.protobuf.Struct documents built and parsed by internal/convert,
// so the service descriptor is maintained by hand instead of generated.
package editorv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "ohmylink.editor.v1.ProfileEditor"

const (
	GetProfileFullMethodName        = "/" + ServiceName + "/GetProfile"
	CreateRecordFullMethodName      = "/" + ServiceName + "/CreateRecord"
	UpdateRecordFullMethodName      = "/" + ServiceName + "/UpdateRecord"
	DeleteRecordFullMethodName      = "/" + ServiceName + "/DeleteRecord"
	ReorderRecordsFullMethodName    = "/" + ServiceName + "/ReorderRecords"
	UpdateScalarGroupFullMethodName = "/" + ServiceName + "/UpdateScalarGroup"
)

// ProfileEditorServer is the server API.
type ProfileEditorServer interface {
	// GetProfile returns the caller's profile aggregate.
	GetProfile(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// CreateRecord appends a link or social; request {kind, fields}, response {id, position}.
	CreateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// UpdateRecord changes fields of a record; request {kind, id, fields}.
	UpdateRecord(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// DeleteRecord removes a record; request {kind, id}.
	DeleteRecord(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// ReorderRecords rewrites the order of a collection; request {kind, ids}.
	ReorderRecords(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// UpdateScalarGroup writes one group of profile settings; request {group, fields}.
	UpdateScalarGroup(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// UnimplementedProfileEditorServer can be embedded for forward compatibility.
type UnimplementedProfileEditorServer struct{}

func (UnimplementedProfileEditorServer) GetProfile(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedProfileEditorServer) CreateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateRecord not implemented")
}
func (UnimplementedProfileEditorServer) UpdateRecord(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateRecord not implemented")
}
func (UnimplementedProfileEditorServer) DeleteRecord(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteRecord not implemented")
}
func (UnimplementedProfileEditorServer) ReorderRecords(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ReorderRecords not implemented")
}
func (UnimplementedProfileEditorServer) UpdateScalarGroup(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateScalarGroup not implemented")
}

// RegisterProfileEditorServer registers srv on s.
func RegisterProfileEditorServer(s grpc.ServiceRegistrar, srv ProfileEditorServer) {
	s.RegisterService(&ProfileEditorServiceDesc, srv)
}

func unary[Req any, Resp any](fullMethod string, call func(ProfileEditorServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProfileEditorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProfileEditorServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ProfileEditorServiceDesc is the grpc.ServiceDesc for ProfileEditor.
var ProfileEditorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProfileEditorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProfile", Handler: unary(GetProfileFullMethodName, ProfileEditorServer.GetProfile)},
		{MethodName: "CreateRecord", Handler: unary(CreateRecordFullMethodName, ProfileEditorServer.CreateRecord)},
		{MethodName: "UpdateRecord", Handler: unary(UpdateRecordFullMethodName, ProfileEditorServer.UpdateRecord)},
		{MethodName: "DeleteRecord", Handler: unary(DeleteRecordFullMethodName, ProfileEditorServer.DeleteRecord)},
		{MethodName: "ReorderRecords", Handler: unary(ReorderRecordsFullMethodName, ProfileEditorServer.ReorderRecords)},
		{MethodName: "UpdateScalarGroup", Handler: unary(UpdateScalarGroupFullMethodName, ProfileEditorServer.UpdateScalarGroup)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ohmylink/editor/v1/editor.proto",
}

// ProfileEditorClient is the client API.
type ProfileEditorClient interface {
	GetProfile(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	CreateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	DeleteRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ReorderRecords(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	UpdateScalarGroup(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type profileEditorClient struct {
	cc grpc.ClientConnInterface
}

// NewProfileEditorClient wraps cc.
func NewProfileEditorClient(cc grpc.ClientConnInterface) ProfileEditorClient {
	return &profileEditorClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *profileEditorClient) GetProfile(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, GetProfileFullMethodName, in, opts)
}

func (c *profileEditorClient) CreateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, CreateRecordFullMethodName, in, opts)
}

func (c *profileEditorClient) UpdateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, UpdateRecordFullMethodName, in, opts)
}

func (c *profileEditorClient) DeleteRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, DeleteRecordFullMethodName, in, opts)
}

func (c *profileEditorClient) ReorderRecords(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, ReorderRecordsFullMethodName, in, opts)
}

func (c *profileEditorClient) UpdateScalarGroup(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, UpdateScalarGroupFullMethodName, in, opts)
}
