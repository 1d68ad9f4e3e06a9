package nbi

import (
	"context"
	"time"

	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/observability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor gives every RouterService call a request id,
// taken from the x-request-id header when the client sent one, and stores a
// logger annotated with it and the RPC method on the context. The id is
// echoed back in the response header. Completed calls are logged at debug,
// failed ones with their gRPC code.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if incoming := requestIDFromMetadata(ctx); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}

		_, method := observability.SplitMethod(info.FullMethod)
		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("rpc", method)))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		if err := grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, logging.RequestIDFromContext(ctx))); err != nil {
			reqLog.Debug(ctx, "request id header not set", logging.Err(err))
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		logCompletion(ctx, reqLog, err, time.Since(start))
		return resp, err
	}
}

func logCompletion(ctx context.Context, log logging.Logger, err error, took time.Duration) {
	code := status.Code(err)
	fields := []logging.Field{
		logging.String("code", code.String()),
		logging.Float64("duration_ms", float64(took.Microseconds())/1000),
	}
	switch code {
	case codes.OK:
		log.Debug(ctx, "rpc completed", fields...)
	case codes.Internal, codes.Unknown:
		log.Error(ctx, "rpc failed", append(fields, logging.Err(err))...)
	default:
		log.Debug(ctx, "rpc rejected", append(fields, logging.Err(err))...)
	}
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(requestIDMetadataKey); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
