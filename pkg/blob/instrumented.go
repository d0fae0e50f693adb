package blob

import (
	"context"
	"errors"
	"io"

	"github.com/marmos91/cask/internal/telemetry"
	"github.com/marmos91/cask/pkg/metrics"
)

// Instrumented wraps a Store with tracing spans and operation counters.
type Instrumented struct {
	next    Store
	backend string
	metrics *metrics.Metrics
}

var _ Store = (*Instrumented)(nil)

// Instrument wraps s. m may be nil.
func Instrument(s Store, backend Type, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: s, backend: string(backend), metrics: m}
}

// Unwrap returns the wrapped backend.
func (i *Instrumented) Unwrap() Store {
	return i.next
}

func (i *Instrumented) Put(ctx context.Context, id string, r io.Reader) error {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobPut, i.backend, id)
	defer span.End()

	err := i.next.Put(ctx, id, r)
	i.record(ctx, "put", err)
	return err
}

func (i *Instrumented) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobGet, i.backend, id)
	defer span.End()

	rc, err := i.next.Get(ctx, id)
	i.record(ctx, "get", err)
	return rc, err
}

func (i *Instrumented) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobDelete, i.backend, id)
	defer span.End()

	err := i.next.Delete(ctx, id)
	i.record(ctx, "delete", err)
	return err
}

func (i *Instrumented) HealthCheck(ctx context.Context) error {
	return i.next.HealthCheck(ctx)
}

func (i *Instrumented) Close() error {
	return i.next.Close()
}

// record counts the call. A missing blob is an answer, not a failure.
func (i *Instrumented) record(ctx context.Context, op string, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		telemetry.RecordError(ctx, err)
		i.metrics.BlobOperation(i.backend, op, err)
		return
	}
	i.metrics.BlobOperation(i.backend, op, nil)
}

var _ Store = (*Instrumented)(nil)
