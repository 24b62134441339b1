package panel

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "safehome.v1.ControlPanel"

// Method names of the control panel service.
const (
	MethodGetStatus          = "GetStatus"
	MethodSetSecurityMode    = "SetSecurityMode"
	MethodAddSecurityZone    = "AddSecurityZone"
	MethodUpdateSecurityZone = "UpdateSecurityZone"
	MethodRemoveSecurityZone = "RemoveSecurityZone"
	MethodSetZoneArm         = "SetZoneArm"
	MethodSetSensor          = "SetSensor"
	MethodListLogs           = "ListLogs"
)

// ControlPanelServer is the server API of the control panel service.
type ControlPanelServer interface {
	GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetSecurityMode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddSecurityZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateSecurityZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveSecurityZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetZoneArm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv ControlPanelServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes the control panel service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlPanelServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(MethodGetStatus, ControlPanelServer.GetStatus),
		methodDesc(MethodSetSecurityMode, ControlPanelServer.SetSecurityMode),
		methodDesc(MethodAddSecurityZone, ControlPanelServer.AddSecurityZone),
		methodDesc(MethodUpdateSecurityZone, ControlPanelServer.UpdateSecurityZone),
		methodDesc(MethodRemoveSecurityZone, ControlPanelServer.RemoveSecurityZone),
		methodDesc(MethodSetZoneArm, ControlPanelServer.SetZoneArm),
		methodDesc(MethodSetSensor, ControlPanelServer.SetSensor),
		methodDesc(MethodListLogs, ControlPanelServer.ListLogs),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "safehome/v1/panel.proto",
}

// RegisterControlPanelServer registers srv on s.
func RegisterControlPanelServer(s grpc.ServiceRegistrar, srv ControlPanelServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the /service/method path of a control panel method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func methodDesc(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return call(srv.(ControlPanelServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}

			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ControlPanelServer), ctx, req.(*structpb.Struct))
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

// ControlPanelClient is the client API of the control panel service.
type ControlPanelClient struct {
	cc grpc.ClientConnInterface
}

// NewControlPanelClient returns a client calling the service over cc.
func NewControlPanelClient(cc grpc.ClientConnInterface) *ControlPanelClient {
	return &ControlPanelClient{cc: cc}
}

// Call invokes method with req and returns the response struct.
func (c *ControlPanelClient) Call(
	ctx context.Context,
	method string,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	if req == nil {
		req = new(structpb.Struct)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
