package client

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Options configures how the CLI reaches the security server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Out receives rendered output, defaults to stdout.
	Out io.Writer
}

// API is the part of common.Client the commands use.
type API interface {
	GetState(ctx context.Context) (*domain.State, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*domain.State, error)
	AddSensor(ctx context.Context, sensor *domain.Sensor) (*domain.State, error)
	RemoveSensor(ctx context.Context, sensor *domain.Sensor) (*domain.State, error)
	ChangeSensorActivation(ctx context.Context, sensor *domain.Sensor, active bool) (*domain.State, error)
	ProcessImage(ctx context.Context, image []byte) (*domain.State, error)
	Watch(ctx context.Context, handle func(domain.Event) error) error
}

// Action is a single CLI command run against a connected client.
type Action func(ctx context.Context, api API, out io.Writer) error

// Run loads settings, connects to the server and performs the action.
func Run(ctx context.Context, opts *Options, action Action) error {
	ctx = logger.WithName(ctx, "catpoint")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// The operator only enriches server logs.
	if operator, err := common.DetectOperator(); err == nil {
		clientOptions = append(clientOptions, common.WithOperator(operator))
	} else {
		logger.WarnKV(ctx, "Unable to detect operator", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress, clientOptions...)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to security server", "server_address", serverAddress)

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return action(ctx, client, out)
}

// Status prints the current state.
func Status() Action {
	return func(ctx context.Context, api API, out io.Writer) error {
		state, err := api.GetState(ctx)
		if err != nil {
			return err
		}

		RenderState(out, state)

		return nil
	}
}

// SetArmingStatus arms or disarms the system and prints the resulting state.
func SetArmingStatus(status domain.ArmingStatus) Action {
	return func(ctx context.Context, api API, out io.Writer) error {
		state, err := api.SetArmingStatus(ctx, status)
		if err != nil {
			return err
		}

		RenderState(out, state)

		return nil
	}
}

// SensorVerb is a sensor subcommand.
type SensorVerb string

// Sensor subcommands.
const (
	SensorAdd        SensorVerb = "add"
	SensorRemove     SensorVerb = "remove"
	SensorActivate   SensorVerb = "activate"
	SensorDeactivate SensorVerb = "deactivate"
)

// Sensor runs a sensor subcommand for the named sensor.
func Sensor(verb SensorVerb, name, sensorType string) Action {
	return func(ctx context.Context, api API, out io.Writer) error {
		parsedType, err := domain.ParseSensorType(sensorType)
		if err != nil {
			return err
		}

		sensor, err := domain.NewSensor(name, parsedType)
		if err != nil {
			return err
		}

		var state *domain.State

		switch verb {
		case SensorAdd:
			state, err = api.AddSensor(ctx, sensor)
		case SensorRemove:
			state, err = api.RemoveSensor(ctx, sensor)
		case SensorActivate:
			state, err = api.ChangeSensorActivation(ctx, sensor, true)
		case SensorDeactivate:
			state, err = api.ChangeSensorActivation(ctx, sensor, false)
		default:
			return fmt.Errorf("unknown sensor command %q", verb)
		}

		if err != nil {
			return err
		}

		RenderState(out, state)

		return nil
	}
}

// ProcessImage submits the frame stored at path and prints the resulting state.
func ProcessImage(path string) Action {
	return func(ctx context.Context, api API, out io.Writer) error {
		image, err := os.ReadFile(path) //nolint:gosec // The operator chooses the file.
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		state, err := api.ProcessImage(ctx, image)
		if err != nil {
			return err
		}

		RenderState(out, state)

		return nil
	}
}

// Watch prints security events as they arrive until ctx is canceled.
func Watch() Action {
	return func(ctx context.Context, api API, out io.Writer) error {
		return api.Watch(ctx, func(event domain.Event) error {
			_, err := fmt.Fprintln(out, FormatEvent(event))

			return err
		})
	}
}
