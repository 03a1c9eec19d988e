package security

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
	engine "github.com/oshokin/catpoint/internal/service/security"
)

// Service abstracts the engine operations the transport layer depends on.
type Service interface {
	State(ctx context.Context) (*domain.State, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, sensor *domain.Sensor) error
	ChangeSensorActivation(ctx context.Context, key domain.SensorKey, active bool) error
	ProcessImage(ctx context.Context, image []byte) error
}

// Subscriber hands out event streams for Watch.
type Subscriber interface {
	Subscribe() (<-chan domain.Event, func())
}

// Server implements the SecurityService gRPC API.
type Server struct {
	// service provides the security decisions.
	service Service
	// events feeds Watch streams.
	events Subscriber
}

var _ pb.SecurityServiceServer = (*Server)(nil)

// NewServer wires the provided service and event source into a gRPC handler.
func NewServer(service Service, events Subscriber) *Server {
	return &Server{
		service: service,
		events:  events,
	}
}

// GetState returns the current state.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.state(ctx)
}

// SetArmingStatus applies an arming command and returns the resulting state.
func (s *Server) SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "arming status is required")
	}

	arming, err := domain.ParseArmingStatus(req.GetValue())
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	if err = s.service.SetArmingStatus(ctx, arming); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(ctx)
}

// AddSensor registers a sensor and returns the resulting state.
func (s *Server) AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := decodeSensor(ctx, req)
	if err != nil {
		return nil, err
	}

	if err = s.service.AddSensor(ctx, sensor); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(ctx)
}

// RemoveSensor drops a sensor and returns the resulting state.
func (s *Server) RemoveSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := decodeSensor(ctx, req)
	if err != nil {
		return nil, err
	}

	if err = s.service.RemoveSensor(ctx, sensor); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(ctx)
}

// ChangeSensorActivation sets the active flag of a registered sensor.
func (s *Server) ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	requested, err := decodeSensor(ctx, req)
	if err != nil {
		return nil, err
	}

	if err = s.service.ChangeSensorActivation(ctx, requested.Key(), requested.Active); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(ctx)
}

// ProcessImage classifies a camera frame and returns the resulting state.
func (s *Server) ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if len(req.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "image is required")
	}

	if err := s.service.ProcessImage(ctx, req.GetValue()); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(ctx)
}

// Watch streams listener notifications until the client goes away.
func (s *Server) Watch(_ *emptypb.Empty, stream pb.WatchServerStream) error {
	ctx := stream.Context()

	events, cancel := s.events.Subscribe()
	defer cancel()

	logger.Info(ctx, "Watch stream opened")

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Watch stream closed")

			return nil
		case event, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "event source closed")
			}

			if err := stream.Send(pb.EventToProto(event)); err != nil {
				return err
			}
		}
	}
}

func (s *Server) state(ctx context.Context) (*structpb.Struct, error) {
	state, err := s.service.State(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return pb.StateToProto(state), nil
}

func decodeSensor(ctx context.Context, req *structpb.Struct) (*domain.Sensor, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "sensor is required")
	}

	sensor, err := pb.SensorFromProto(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return sensor, nil
}

// toStatus maps engine and codec errors to gRPC status errors.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArmingStatus),
		errors.Is(err, domain.ErrInvalidAlarmStatus),
		errors.Is(err, domain.ErrInvalidSensorType),
		errors.Is(err, domain.ErrInvalidSensor),
		errors.Is(err, pb.ErrMissingField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrSensorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)

		return status.Error(codes.Internal, "unable to process request")
	}
}
