// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tracing installs the OpenTelemetry tracer provider and the HTTP
server span middleware.

Export is opt-in: without a collector endpoint the process runs a no-op
provider, so spans cost nothing and [Start] is still safe to call from any
package.
*/
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
)

const instrumentationName = "github.com/taibuivan/yomira-studio"

// Options configures span export.
type Options struct {
	// Endpoint is the OTLP/HTTP collector host:port. Empty disables export.
	Endpoint string
	Insecure bool

	// SampleRatio is applied to root spans; children follow their parent.
	SampleRatio float64

	Environment string
}

// Shutdown flushes buffered spans.
type Shutdown func(ctx context.Context) error

// Setup installs the global tracer provider and W3C propagators.
func Setup(ctx context.Context, options Options, logger *slog.Logger) (Shutdown, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if options.Endpoint == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		logger.Info("tracing_disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(constants.AppName),
		semconv.ServiceVersionKey.String(constants.AppVersion),
		semconv.DeploymentEnvironmentKey.String(options.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: resource: %w", err)
	}

	clientOptions := []otlptracehttp.Option{otlptracehttp.WithEndpoint(options.Endpoint)}
	if options.Insecure {
		clientOptions = append(clientOptions, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(clientOptions...))
	if err != nil {
		return nil, fmt.Errorf("tracing: exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(options.SampleRatio))),
	)
	otel.SetTracerProvider(provider)

	logger.Info("tracing_enabled",
		slog.String("endpoint", options.Endpoint),
		slog.Float64("sample_ratio", options.SampleRatio),
	)

	return provider.Shutdown, nil
}

// Start opens a span on the global provider.
func Start(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attributes...))
}

// Fail marks span as failed with err and tags its studio error code.
func Fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("app.error_code", apperr.CodeOf(err)))
	span.SetStatus(codes.Error, err.Error())
}

// Middleware opens a server span per request, continuing any incoming trace.
// The span is renamed to the matched chi route once the handler returns.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(request.Context(), propagation.HeaderCarrier(request.Header))
		ctx, span := otel.Tracer(instrumentationName).Start(ctx, request.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(request.Method),
				semconv.URLPath(request.URL.Path),
			),
		)
		defer span.End()

		recorder := &statusWriter{ResponseWriter: writer, status: http.StatusOK}
		next.ServeHTTP(recorder, request.WithContext(ctx))

		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				span.SetName(request.Method + " " + pattern)
				span.SetAttributes(semconv.HTTPRoute(pattern))
			}
		}

		span.SetAttributes(semconv.HTTPResponseStatusCode(recorder.status))
		if recorder.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (writer *statusWriter) WriteHeader(code int) {
	if !writer.wroteHeader {
		writer.status = code
		writer.wroteHeader = true
	}
	writer.ResponseWriter.WriteHeader(code)
}

func (writer *statusWriter) Unwrap() http.ResponseWriter {
	return writer.ResponseWriter
}
