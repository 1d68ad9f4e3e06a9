package nbi

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/nbi/types"
	"github.com/signalsfoundry/mesh-energy-router/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const tracerName = "github.com/signalsfoundry/mesh-energy-router/internal/nbi"

// requestSpanFields are the request fields copied onto the RPC span as
// mesh.request.<field> when the client sets them.
var requestSpanFields = []string{
	types.FieldObjective,
	types.FieldSource,
	types.FieldTarget,
	types.FieldNode,
	types.FieldPacketSize,
}

// TracingUnaryServerInterceptor names the RPC span "RPC/<service>/<method>",
// starting one when the otelgrpc stats handler has not, and tags it with the
// routing fields of the request. Failed calls record the gRPC code.
func TracingUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := observability.SplitMethod(info.FullMethod)
		name := fmt.Sprintf("RPC/%s/%s", service, method)

		span := trace.SpanFromContext(ctx)
		owned := !span.SpanContext().IsValid()
		if owned {
			ctx, span = tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
		} else {
			span.SetName(name)
		}

		span.SetAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", service),
			attribute.String("rpc.method", method),
		)
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			span.SetAttributes(attribute.String("request_id", reqID))
		}
		if in, ok := req.(*structpb.Struct); ok {
			span.SetAttributes(requestAttributes(in)...)
		}

		resp, err := handler(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("rpc.grpc.status_code", status.Code(err).String()))
			span.SetStatus(otelcodes.Error, err.Error())
		}
		return resp, err
	}
}

func requestAttributes(in *structpb.Struct) []attribute.KeyValue {
	fields := in.GetFields()
	var attrs []attribute.KeyValue
	for _, name := range requestSpanFields {
		v, ok := fields[name]
		if !ok {
			continue
		}
		key := "mesh.request." + name
		switch kind := v.GetKind().(type) {
		case *structpb.Value_NumberValue:
			attrs = append(attrs, attribute.Float64(key, kind.NumberValue))
		case *structpb.Value_StringValue:
			attrs = append(attrs, attribute.String(key, kind.StringValue))
		}
	}
	return attrs
}
