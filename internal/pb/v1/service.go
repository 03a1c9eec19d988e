package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "catpoint.v1.SecurityService"
	// OperatorMetadataKey carries the user@hostname of the caller.
	OperatorMetadataKey = "x-catpoint-operator"
)

// Full method names.
const (
	GetStateMethod               = "/" + ServiceName + "/GetState"
	SetArmingStatusMethod        = "/" + ServiceName + "/SetArmingStatus"
	AddSensorMethod              = "/" + ServiceName + "/AddSensor"
	RemoveSensorMethod           = "/" + ServiceName + "/RemoveSensor"
	ChangeSensorActivationMethod = "/" + ServiceName + "/ChangeSensorActivation"
	ProcessImageMethod           = "/" + ServiceName + "/ProcessImage"
	WatchMethod                  = "/" + ServiceName + "/Watch"
)

// SecurityServiceServer is the server API of the SecurityService.
type SecurityServiceServer interface {
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
	Watch(req *emptypb.Empty, stream WatchServerStream) error
}

// WatchServerStream is the server side of the Watch stream.
type WatchServerStream interface {
	Send(event *structpb.Struct) error
	grpc.ServerStream
}

// WatchClientStream is the client side of the Watch stream.
type WatchClientStream interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

// ServiceDesc describes the SecurityService for grpc.Server registration.
//
//nolint:gochecknoglobals // grpc-go expects a descriptor value.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SecurityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetState",
			Handler:    unaryHandler(GetStateMethod, SecurityServiceServer.GetState),
		},
		{
			MethodName: "SetArmingStatus",
			Handler:    unaryHandler(SetArmingStatusMethod, SecurityServiceServer.SetArmingStatus),
		},
		{
			MethodName: "AddSensor",
			Handler:    unaryHandler(AddSensorMethod, SecurityServiceServer.AddSensor),
		},
		{
			MethodName: "RemoveSensor",
			Handler:    unaryHandler(RemoveSensorMethod, SecurityServiceServer.RemoveSensor),
		},
		{
			MethodName: "ChangeSensorActivation",
			Handler:    unaryHandler(ChangeSensorActivationMethod, SecurityServiceServer.ChangeSensorActivation),
		},
		{
			MethodName: "ProcessImage",
			Handler:    unaryHandler(ProcessImageMethod, SecurityServiceServer.ProcessImage),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
}

// RegisterSecurityServiceServer registers the implementation with a gRPC server.
func RegisterSecurityServiceServer(registrar grpc.ServiceRegistrar, srv SecurityServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[T any, PT interface {
	*T
	proto.Message
}](
	fullMethod string,
	call func(SecurityServiceServer, context.Context, PT) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PT(new(T))
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(SecurityServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(PT)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	server, _ := srv.(SecurityServiceServer)

	return server.Watch(in, &watchServerStream{stream})
}

type watchServerStream struct {
	grpc.ServerStream
}

func (s *watchServerStream) Send(event *structpb.Struct) error {
	return s.SendMsg(event)
}

type watchClientStream struct {
	grpc.ClientStream
}

func (s *watchClientStream) Recv() (*structpb.Struct, error) {
	event := new(structpb.Struct)
	if err := s.RecvMsg(event); err != nil {
		return nil, err
	}

	return event, nil
}

// SecurityServiceClient is the client stub of the SecurityService.
type SecurityServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSecurityServiceClient returns a client stub bound to the connection.
func NewSecurityServiceClient(cc grpc.ClientConnInterface) *SecurityServiceClient {
	return &SecurityServiceClient{cc: cc}
}

// GetState returns the current state.
func (c *SecurityServiceClient) GetState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, GetStateMethod, in, opts)
}

// SetArmingStatus applies an arming command.
func (c *SecurityServiceClient) SetArmingStatus(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, SetArmingStatusMethod, in, opts)
}

// AddSensor registers a sensor.
func (c *SecurityServiceClient) AddSensor(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, AddSensorMethod, in, opts)
}

// RemoveSensor drops a sensor.
func (c *SecurityServiceClient) RemoveSensor(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, RemoveSensorMethod, in, opts)
}

// ChangeSensorActivation activates or deactivates a sensor.
func (c *SecurityServiceClient) ChangeSensorActivation(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, ChangeSensorActivationMethod, in, opts)
}

// ProcessImage submits a camera frame.
func (c *SecurityServiceClient) ProcessImage(
	ctx context.Context,
	in *wrapperspb.BytesValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, ProcessImageMethod, in, opts)
}

// Watch subscribes to security events.
//
//nolint:ireturn // Stream interfaces are the grpc-go convention.
func (c *SecurityServiceClient) Watch(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (WatchClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchMethod, opts...)
	if err != nil {
		return nil, err
	}

	if err = stream.SendMsg(in); err != nil {
		return nil, err
	}

	if err = stream.CloseSend(); err != nil {
		return nil, err
	}

	return &watchClientStream{stream}, nil
}

func (c *SecurityServiceClient) invoke(
	ctx context.Context,
	method string,
	in proto.Message,
	opts []grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
