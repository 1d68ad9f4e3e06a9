package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "meshrouter.v1.RouterService"

// Method names of the RouterService.
const (
	MethodGetTopology      = "GetTopology"
	MethodGetStatus        = "GetStatus"
	MethodRoute            = "Route"
	MethodCompareRoutes    = "CompareRoutes"
	MethodFailNode         = "FailNode"
	MethodSetPacketSize    = "SetPacketSize"
	MethodRegenerate       = "Regenerate"
	MethodEnergyCurve      = "EnergyCurve"
	MethodGetEnergyHistory = "GetEnergyHistory"
)

// RouterServer is the server API of meshrouter.v1.RouterService. Every
// method exchanges google.protobuf.Struct messages.
type RouterServer interface {
	GetTopology(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Route(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompareRoutes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FailNode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPacketSize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Regenerate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EnergyCurve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEnergyHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(RouterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// RouterServiceDesc describes the service for grpc.ServiceRegistrar.
var RouterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RouterServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodGetTopology, RouterServer.GetTopology),
		unaryMethod(MethodGetStatus, RouterServer.GetStatus),
		unaryMethod(MethodRoute, RouterServer.Route),
		unaryMethod(MethodCompareRoutes, RouterServer.CompareRoutes),
		unaryMethod(MethodFailNode, RouterServer.FailNode),
		unaryMethod(MethodSetPacketSize, RouterServer.SetPacketSize),
		unaryMethod(MethodRegenerate, RouterServer.Regenerate),
		unaryMethod(MethodEnergyCurve, RouterServer.EnergyCurve),
		unaryMethod(MethodGetEnergyHistory, RouterServer.GetEnergyHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meshrouter/v1/router.proto",
}

// RegisterRouterServer registers srv on s.
func RegisterRouterServer(s grpc.ServiceRegistrar, srv RouterServer) {
	s.RegisterService(&RouterServiceDesc, srv)
}

// FullMethod returns "/meshrouter.v1.RouterService/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryMethod(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RouterServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(RouterServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

//
// ---------- Client ----------
//

// RouterClient is a thin client for the RouterService.
type RouterClient struct {
	cc grpc.ClientConnInterface
}

// NewRouterClient wraps an established connection.
func NewRouterClient(cc grpc.ClientConnInterface) *RouterClient {
	return &RouterClient{cc: cc}
}

func (c *RouterClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RouterClient) GetTopology(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetTopology, in, opts...)
}

func (c *RouterClient) GetStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetStatus, in, opts...)
}

func (c *RouterClient) Route(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRoute, in, opts...)
}

func (c *RouterClient) CompareRoutes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCompareRoutes, in, opts...)
}

func (c *RouterClient) FailNode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodFailNode, in, opts...)
}

func (c *RouterClient) SetPacketSize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSetPacketSize, in, opts...)
}

func (c *RouterClient) Regenerate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRegenerate, in, opts...)
}

func (c *RouterClient) EnergyCurve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEnergyCurve, in, opts...)
}

func (c *RouterClient) GetEnergyHistory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetEnergyHistory, in, opts...)
}
