package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// Options controls the catpoint-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile overrides the storage path of the file and sqlite drivers.
	StateFile string
	// LogLevel overrides the configured log level.
	LogLevel string
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// errInvalidLogLevel is returned for an unknown log level name.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Run starts the gRPC server and blocks until context is canceled or server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = applyOverrides(settings, opts); err != nil {
		return err
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	parts, err := newComponents(ctx, settings)
	if err != nil {
		return fmt.Errorf("initialise components: %w", err)
	}

	defer func() {
		if closeErr := parts.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Failed to release adapters", "error", closeErr)
		}
	}()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := newGRPCServer(ctx, parts, settings.Timeout)

	logger.InfoKV(ctx, "Security server listening",
		"listen_address", listenAddress,
		"storage", settings.Storage.Driver,
		"classifier", settings.Classifier.Driver)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// newGRPCServer registers the SecurityService, tags request logs with the
// caller and bounds every unary call by timeout.
func newGRPCServer(ctx context.Context, parts *components, timeout time.Duration) *grpc.Server {
	base := logger.FromContext(ctx)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(func(
			reqCtx context.Context,
			req any,
			info *grpc.UnaryServerInfo,
			handler grpc.UnaryHandler,
		) (any, error) {
			callCtx, cancel := withCallDeadline(reqCtx, timeout)
			defer cancel()

			return handler(requestContext(callCtx, base, info.FullMethod), req)
		}),
		grpc.ChainStreamInterceptor(func(
			srv any,
			stream grpc.ServerStream,
			info *grpc.StreamServerInfo,
			handler grpc.StreamHandler,
		) error {
			return handler(srv, &loggedStream{
				ServerStream: stream,
				ctx:          requestContext(stream.Context(), base, info.FullMethod),
			})
		}),
	)

	pb.RegisterSecurityServiceServer(grpcServer, api.NewServer(parts.engine, parts.broadcaster))

	return grpcServer
}

// withCallDeadline bounds the call by timeout. An earlier caller deadline wins.
// ProcessImage holds the engine lock during classification, so this also
// bounds how long other calls wait on a slow classifier.
func withCallDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// requestContext attaches a logger tagged with the method and the caller's operator, if sent.
func requestContext(ctx context.Context, base *zap.SugaredLogger, method string) context.Context {
	l := base.With("method", method)

	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if operator := md.Get(pb.OperatorMetadataKey); len(operator) > 0 {
			l = l.With("operator", operator[0])
		}
	}

	return logger.ToContext(ctx, l)
}

// loggedStream carries the request logger in its context.
type loggedStream struct {
	grpc.ServerStream

	ctx context.Context //nolint:containedctx // Stream contexts are per-call.
}

func (s *loggedStream) Context() context.Context { return s.ctx }

// applyOverrides applies command line options on top of the loaded settings.
func applyOverrides(settings *config.Config, opts *Options) error {
	if opts.StateFile != "" {
		settings.Storage.Path = opts.StateFile
	}

	levelName := settings.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(levelName)
	if !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, levelName)
	}

	logger.SetLevel(level)

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
