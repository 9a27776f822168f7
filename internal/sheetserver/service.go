// Package sheetserver serves character sheets over gRPC. Requests and
// responses are google.protobuf.Struct messages, so the service needs no
// generated code.
package sheetserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "pf2e.sheet.v1.SheetService"

// Method names, relative to ServiceName.
const (
	MethodEvaluate      = "Evaluate"
	MethodDescribe      = "Describe"
	MethodListResources = "ListResources"
	MethodUnenforced    = "Unenforced"
)

// SheetServiceServer is the server API for the sheet service.
//
//	Evaluate      {character_id, name, target?} -> {total, display}
//	Describe      {character_id, resource}      -> {text}
//	ListResources {type?}                       -> {refs}
//	Unenforced    {character_id}                -> {conditions}
type SheetServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Describe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListResources(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unenforced(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSheetServiceServer registers srv with s.
func RegisterSheetServiceServer(s grpc.ServiceRegistrar, srv SheetServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the sheet service to grpc.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SheetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodEvaluate, Handler: unaryHandler(MethodEvaluate, SheetServiceServer.Evaluate)},
		{MethodName: MethodDescribe, Handler: unaryHandler(MethodDescribe, SheetServiceServer.Describe)},
		{MethodName: MethodListResources, Handler: unaryHandler(MethodListResources, SheetServiceServer.ListResources)},
		{MethodName: MethodUnenforced, Handler: unaryHandler(MethodUnenforced, SheetServiceServer.Unenforced)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pf2e/sheet/v1/sheet.proto",
}

// FullMethod returns the "/service/method" path for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type unaryCall func(SheetServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SheetServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SheetServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
