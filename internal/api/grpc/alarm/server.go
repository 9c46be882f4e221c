package alarm

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/domain/command"
	"github.com/oshokin/alarm-scheduler/internal/service/scheduler"
)

// Service abstracts the scheduler operations the transport layer depends on.
type Service interface {
	Submit(ctx context.Context, cmd command.Command) (*scheduler.Outcome, error)
}

// Server implements alarm.v1.SchedulerService on top of a Service.
type Server struct {
	// service applies the commands.
	service Service
}

var _ SchedulerServiceServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Submit parses and applies one command line.
func (s *Server) Submit(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "command line is required")
	}

	cmd, err := command.Parse(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	outcome, err := s.service.Submit(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.String(strings.Join(outcome.Lines(), "\n")), nil
}

// ListAlarms returns the pending alarms as a list of structs ordered by (deadline, id).
func (s *Server) ListAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	outcome, err := s.service.Submit(ctx, command.View())
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]any, 0, len(outcome.Alarms))
	for _, a := range outcome.Alarms {
		values = append(values, map[string]any{
			"alarm_id": a.ID,
			"group_id": a.Group,
			"seconds":  a.Seconds,
			"message":  a.Message,
			"state":    a.State.String(),
			"deadline": a.Deadline.Unix(),
		})
	}

	list, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode alarms: %v", err)
	}

	return list, nil
}

// toStatus maps scheduler errors onto gRPC status codes.
func toStatus(err error) error {
	var code codes.Code

	switch {
	case errors.Is(err, scheduler.ErrStopped):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		switch domain.KindOf(err) {
		case domain.KindInvalidArgument, domain.KindParseError:
			code = codes.InvalidArgument
		case domain.KindDuplicateID:
			code = codes.AlreadyExists
		case domain.KindNotFound:
			code = codes.NotFound
		case domain.KindResourceExhausted:
			code = codes.ResourceExhausted
		default:
			code = codes.Internal
		}
	}

	return status.Error(code, err.Error())
}

// FromStatus turns a status error returned by the control API back into a
// classified scheduler error. Other errors are returned unchanged.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}

	var kind domain.ErrorKind

	switch st.Code() {
	case codes.InvalidArgument:
		kind = domain.KindInvalidArgument
		if strings.HasPrefix(st.Message(), string(domain.KindParseError)) {
			kind = domain.KindParseError
		}
	case codes.AlreadyExists:
		kind = domain.KindDuplicateID
	case codes.NotFound:
		kind = domain.KindNotFound
	case codes.ResourceExhausted:
		kind = domain.KindResourceExhausted
	default:
		return err
	}

	return &domain.Error{
		Kind:        kind,
		Description: strings.TrimPrefix(st.Message(), string(kind)+": "),
	}
}
