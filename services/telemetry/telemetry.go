// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted in Config.
const (
	ExporterNone       = "none"
	ExporterStdout     = "stdout"
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
)

// Config controls telemetry behavior.
type Config struct {
	// ServiceName identifies this service in traces and metrics.
	ServiceName string `yaml:"-"`

	// ServiceVersion is the version string for this service.
	ServiceVersion string `yaml:"-"`

	// TraceExporter selects the trace exporter: "otlp", "stdout", or "none".
	TraceExporter string `yaml:"trace_exporter" validate:"omitempty,oneof=none stdout otlp"`

	// MetricExporter selects the metric exporter: "prometheus", "stdout", or "none".
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=none stdout prometheus"`

	// OTLPEndpoint is the OTLP receiver endpoint for traces.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool `yaml:"otlp_insecure"`

	// PrometheusTextfile, if set, receives the prometheus metrics at shutdown.
	PrometheusTextfile string `yaml:"prometheus_textfile"`

	// Writer receives stdout exporter output. Defaults to os.Stderr so tool
	// output on stdout stays clean.
	Writer io.Writer `yaml:"-"`
}

// DefaultConfig returns defaults suitable for a command-line run.
//
// Environment variables override defaults where applicable:
//   - OTEL_TRACES_EXPORTER: trace exporter type
//   - OTEL_METRICS_EXPORTER: metric exporter type
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint
func DefaultConfig() Config {
	return Config{
		ServiceName:    "lintdispatch",
		ServiceVersion: "dev",
		TraceExporter:  getEnvOr("OTEL_TRACES_EXPORTER", ExporterNone),
		MetricExporter: getEnvOr("OTEL_METRICS_EXPORTER", ExporterNone),
		OTLPEndpoint:   getEnvOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:   true,
	}
}

// Init initializes the telemetry stack with the given configuration.
//
// Description:
//
//	Sets up the OpenTelemetry TracerProvider and MeterProvider. After Init
//	returns successfully, otel.Tracer() and otel.Meter() export through the
//	configured backends. Empty exporter names mean "none".
//
// Inputs:
//
//	ctx - Context for initialization (used for exporter connections).
//	cfg - Telemetry configuration.
//
// Outputs:
//
//	shutdown - Flushes and closes exporters. Must be called.
//	error - Non-nil if initialization fails.
//
// Thread Safety: Call once at application startup.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	var shutdownFuncs []func(context.Context) error

	// Providers shut down in reverse order of creation.
	shutdown = func(ctx context.Context) error {
		var errs []error
		for i := len(shutdownFuncs) - 1; i >= 0; i-- {
			if err := shutdownFuncs[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
		}
		return nil
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	// --- TRACES ---
	if !isNone(cfg.TraceExporter) {
		tp, err := initTracer(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	}

	// --- METRICS ---
	if !isNone(cfg.MetricExporter) {
		mp, flush, err := initMeter(cfg, res)
		if err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, func(ctx context.Context) error {
			var flushErr error
			if flush != nil {
				flushErr = flush()
			}
			return errors.Join(flushErr, mp.Shutdown(ctx))
		})
	}

	return shutdown, nil
}

func isNone(exporter string) bool {
	return exporter == "" || exporter == ExporterNone
}

// initTracer creates and returns a configured TracerProvider.
func initTracer(ctx context.Context, cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	var exporter trace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)

	case ExporterStdout:
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(cfg.Writer),
			stdouttrace.WithPrettyPrint(),
		)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}

	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	), nil
}

// initMeter creates a MeterProvider. flush, if non-nil, must run before the
// provider shuts down.
func initMeter(cfg Config, res *resource.Resource) (mp *metric.MeterProvider, flush func() error, err error) {
	switch cfg.MetricExporter {
	case ExporterPrometheus:
		registry := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}

		setMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		if cfg.PrometheusTextfile != "" {
			path := cfg.PrometheusTextfile
			flush = func() error {
				if err := prometheus.WriteToTextfile(path, registry); err != nil {
					return fmt.Errorf("write metrics textfile: %w", err)
				}
				return nil
			}
		}

		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(exporter),
		), flush, nil

	case ExporterStdout:
		exporter, err := stdoutmetric.New(
			stdoutmetric.WithWriter(cfg.Writer),
			stdoutmetric.WithPrettyPrint(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}

		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exporter)),
		), nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.MetricExporter)
	}
}

// getEnvOr returns the environment variable value or the fallback.
func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	metricsHandler   http.Handler
	metricsHandlerMu sync.RWMutex
)

func setMetricsHandler(h http.Handler) {
	metricsHandlerMu.Lock()
	defer metricsHandlerMu.Unlock()
	metricsHandler = h
}

// MetricsHandler returns the HTTP handler serving the prometheus registry,
// or nil if the prometheus exporter is not enabled.
//
// Thread Safety: Safe for concurrent use.
func MetricsHandler() http.Handler {
	metricsHandlerMu.RLock()
	defer metricsHandlerMu.RUnlock()
	return metricsHandler
}
