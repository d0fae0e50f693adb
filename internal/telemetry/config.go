package telemetry

// Config holds OpenTelemetry tracing configuration.
type Config struct {
	// Enabled turns on OTLP span export.
	Enabled bool

	// ServiceName is reported as service.name on every span.
	ServiceName string

	// ServiceVersion is reported as service.version.
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	Endpoint string

	// Insecure disables TLS to the collector.
	Insecure bool

	// SampleRate is the fraction of traces kept, from 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns tracing disabled with a local collector endpoint.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "cask",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// ProfilingConfig configures Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server URL (e.g. "http://localhost:4040").
	Endpoint string

	// ProfileTypes lists the profiles to collect: cpu, alloc_objects,
	// alloc_space, inuse_objects, inuse_space, goroutines, mutex_count,
	// mutex_duration, block_count, block_duration.
	ProfileTypes []string
}
