package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "alarm.v1.SchedulerService"

	// SubmitMethod is the full method name of Submit.
	SubmitMethod = "/" + ServiceName + "/Submit"
	// ListAlarmsMethod is the full method name of ListAlarms.
	ListAlarmsMethod = "/" + ServiceName + "/ListAlarms"
)

// SchedulerServiceServer is the server API of alarm.v1.SchedulerService.
type SchedulerServiceServer interface {
	// Submit applies one command line and returns the rendered output records.
	Submit(ctx context.Context, line *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// ListAlarms returns every pending alarm ordered by deadline.
	ListAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error)
}

// RegisterSchedulerServiceServer registers the implementation on a gRPC server.
func RegisterSchedulerServiceServer(registrar grpc.ServiceRegistrar, srv SchedulerServiceServer) {
	registrar.RegisterService(&schedulerServiceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var schedulerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Submit",
			Handler:    submitHandler,
		},
		{
			MethodName: "ListAlarms",
			Handler:    listAlarmsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarm/v1/scheduler.proto",
}

func submitHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(SchedulerServiceServer)
	if interceptor == nil {
		return server.Submit(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SubmitMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		line, _ := req.(*wrapperspb.StringValue)

		return server.Submit(ctx, line)
	}

	return interceptor(ctx, in, info, handler)
}

func listAlarmsHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(SchedulerServiceServer)
	if interceptor == nil {
		return server.ListAlarms(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ListAlarmsMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		empty, _ := req.(*emptypb.Empty)

		return server.ListAlarms(ctx, empty)
	}

	return interceptor(ctx, in, info, handler)
}

// SchedulerServiceClient is the client API of alarm.v1.SchedulerService.
type SchedulerServiceClient struct {
	conn grpc.ClientConnInterface
}

// NewSchedulerServiceClient wraps a connection.
func NewSchedulerServiceClient(conn grpc.ClientConnInterface) *SchedulerServiceClient {
	return &SchedulerServiceClient{
		conn: conn,
	}
}

// Submit sends one command line.
func (c *SchedulerServiceClient) Submit(
	ctx context.Context,
	line *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, SubmitMethod, line, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ListAlarms fetches the pending alarms.
func (c *SchedulerServiceClient) ListAlarms(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, ListAlarmsMethod, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
