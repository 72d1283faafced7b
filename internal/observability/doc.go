// Package observability configures process-wide logging and trace propagation.
//
// Logs always go through log/slog. With no exporter configured they are
// written to stderr as text or JSON. With an exporter, slog records are
// bridged into an OpenTelemetry LoggerProvider and shipped by the chosen
// exporter (stdout, OTLP over HTTP, or OTLP over gRPC). OTLP endpoints and
// headers come from the standard OTEL_EXPORTER_OTLP_* environment variables.
package observability
