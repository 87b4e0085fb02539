package telemetry

import (
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/burrow/internal/core/ports"
)

// fmtPrecision bounds the duration precision shown in phase logs.
const fmtPrecision = time.Millisecond

// InstrumentationName identifies burrow's tracer.
const InstrumentationName = "go.trai.ch/burrow"

// Setup installs a TracerProvider whose only processor is the logger
// bridge and returns it so callers can shut it down.
func Setup(logger ports.Logger) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBridge(logger)),
	)
	otel.SetTracerProvider(tp)
	return tp
}
