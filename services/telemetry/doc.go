// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry initializes OpenTelemetry tracing and metrics for
// lintdispatch.
//
// Packages instrument themselves with otel.Tracer and otel.Meter directly;
// Init only decides where the data goes.
//
// # Trace Exporters
//
//   - none: spans are dropped (default for the CLI)
//   - stdout: pretty-printed JSON spans on Config.Writer
//   - otlp: OTLP/gRPC to OTLPEndpoint
//
// # Metric Exporters
//
//   - none: instruments are no-ops
//   - stdout: pretty-printed JSON on Config.Writer at shutdown
//   - prometheus: a private registry, readable via MetricsHandler and
//     written to PrometheusTextfile (node-exporter textfile collector
//     format) at shutdown
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
// # Environment Variables
//
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//
// # Thread Safety
//
// Init is meant to be called once at startup. LoggerWithTrace and
// MetricsHandler are safe for concurrent use.
package telemetry
