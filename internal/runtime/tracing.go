package runtime

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/drblury/ddsflow"

var tracePropagator = propagation.TraceContext{}

// metadataCarrier adapts Watermill message metadata to the OpenTelemetry
// TextMapCarrier interface so traceparent headers ride along with samples.
type metadataCarrier message.Metadata

func (c metadataCarrier) Get(key string) string {
	return message.Metadata(c).Get(key)
}

func (c metadataCarrier) Set(key, value string) {
	message.Metadata(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// injectTraceContext copies the caller's trace context into the sample
// metadata before it is handed to the middleware.
func injectTraceContext(ctx context.Context, md message.Metadata) {
	tracePropagator.Inject(ctx, metadataCarrier(md))
}

// startDeliverySpan resumes the publishing side's trace (if any) and opens a
// span covering one data callback invocation.
func startDeliverySpan(md message.Metadata, topic string) (context.Context, trace.Span) {
	ctx := tracePropagator.Extract(context.Background(), metadataCarrier(md))
	return otel.Tracer(tracerName).Start(ctx, "ddsflow.deliver",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("messaging.destination.name", topic)),
	)
}
