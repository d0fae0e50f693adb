package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently so log lines can be grepped and aggregated.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Process Lifecycle
	// ========================================================================
	KeyPID     = "pid"      // Process identifier
	KeyPIDFile = "pid_file" // PID registry path
	KeyLogFile = "log_file" // Daemon log file path
	KeyAddr    = "addr"     // Bind address (host:port)
	KeyDataDir = "data_dir" // Data directory
	KeySignal  = "signal"   // Signal name

	// ========================================================================
	// HTTP
	// ========================================================================
	KeyRequestID = "request_id" // chi request id
	KeyMethod    = "method"     // HTTP method
	KeyRoute     = "route"      // Route pattern or path
	KeyStatus    = "status"     // HTTP status code
	KeyClientIP  = "client_ip"  // Client IP address
	KeyTokenID   = "token_id"   // API token id

	// ========================================================================
	// Artifacts
	// ========================================================================
	KeyArtifact   = "artifact"    // Artifact name
	KeyVersion    = "version"     // Artifact version
	KeyArtifactID = "artifact_id" // Artifact uuid
	KeySize       = "size"        // Size in bytes
	KeySHA256     = "sha256"      // Content digest

	// ========================================================================
	// Storage
	// ========================================================================
	KeyBackend = "backend" // Storage backend: fs, s3, sqlite, postgres
	KeyBucket  = "bucket"  // S3 bucket
	KeyKey     = "key"     // Object or metadata key
	KeyPath    = "path"    // Filesystem path

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyOperation  = "operation"   // Operation name
	KeyAttempt    = "attempt"     // Retry / poll attempt number
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// PID returns a slog.Attr for a process identifier
func PID(pid int) slog.Attr {
	return slog.Int(KeyPID, pid)
}

// Addr returns a slog.Attr for a bind address
func Addr(addr string) slog.Attr {
	return slog.String(KeyAddr, addr)
}

// Artifact returns a slog.Attr for an artifact name
func Artifact(name string) slog.Attr {
	return slog.String(KeyArtifact, name)
}

// Version returns a slog.Attr for an artifact version
func Version(v string) slog.Attr {
	return slog.String(KeyVersion, v)
}

// Size returns a slog.Attr for a byte size
func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}

// Backend returns a slog.Attr for a storage backend name
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Operation returns a slog.Attr for an operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Attempt returns a slog.Attr for an attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
