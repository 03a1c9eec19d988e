//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// Client wraps the gRPC SecurityService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the security server.
	conn *grpc.ClientConn
	// api is the SecurityService client stub.
	api *pb.SecurityServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// operator is sent as request metadata when set.
	operator string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithOperator tags every call with the operator identity.
func WithOperator(operator string) Option {
	return func(c *Client) {
		c.operator = operator
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errImageRequired is returned when an empty frame is submitted.
	errImageRequired = errors.New("image must be provided")
)

// Dial establishes a gRPC connection to the security server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial security server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewSecurityServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetState retrieves the current state.
func (c *Client) GetState(ctx context.Context) (*domain.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetState(callCtx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	return pb.StateFromProto(resp)
}

// SetArmingStatus arms or disarms the system.
func (c *Client) SetArmingStatus(ctx context.Context, arming domain.ArmingStatus) (*domain.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetArmingStatus(callCtx, wrapperspb.String(arming.String()))
	if err != nil {
		return nil, fmt.Errorf("set arming status: %w", err)
	}

	return pb.StateFromProto(resp)
}

// AddSensor registers a sensor.
func (c *Client) AddSensor(ctx context.Context, sensor *domain.Sensor) (*domain.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.AddSensor(callCtx, pb.SensorToProto(sensor))
	if err != nil {
		return nil, fmt.Errorf("add sensor: %w", err)
	}

	return pb.StateFromProto(resp)
}

// RemoveSensor drops a sensor.
func (c *Client) RemoveSensor(ctx context.Context, sensor *domain.Sensor) (*domain.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.RemoveSensor(callCtx, pb.SensorToProto(sensor))
	if err != nil {
		return nil, fmt.Errorf("remove sensor: %w", err)
	}

	return pb.StateFromProto(resp)
}

// ChangeSensorActivation activates or deactivates a registered sensor.
func (c *Client) ChangeSensorActivation(
	ctx context.Context,
	sensor *domain.Sensor,
	active bool,
) (*domain.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := sensor.Clone()
	request.Active = active

	resp, err := c.api.ChangeSensorActivation(callCtx, pb.SensorToProto(request))
	if err != nil {
		return nil, fmt.Errorf("change sensor activation: %w", err)
	}

	return pb.StateFromProto(resp)
}

// ProcessImage submits a camera frame for classification.
func (c *Client) ProcessImage(ctx context.Context, image []byte) (*domain.State, error) {
	if len(image) == 0 {
		return nil, errImageRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ProcessImage(callCtx, wrapperspb.Bytes(image))
	if err != nil {
		return nil, fmt.Errorf("process image: %w", err)
	}

	return pb.StateFromProto(resp)
}

// Watch streams security events to handle until ctx is canceled, the server
// ends the stream or handle returns an error.
func (c *Client) Watch(ctx context.Context, handle func(domain.Event) error) error {
	streamCtx, cancel := context.WithCancel(c.withOperator(ctx))
	defer cancel()

	stream, err := c.api.Watch(streamCtx, &emptypb.Empty{})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	for {
		msg, err := stream.Recv()

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case status.Code(err) == codes.Canceled && ctx.Err() != nil:
			return nil
		case err != nil:
			return fmt.Errorf("receive event: %w", err)
		}

		event, err := pb.EventFromProto(msg)
		if err != nil {
			return err
		}

		if err = handle(event); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = c.withOperator(ctx)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Client) withOperator(ctx context.Context) context.Context {
	if c.operator == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, pb.OperatorMetadataKey, c.operator)
}
