package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on artifact service spans.
const (
	AttrClientIP = "client.ip"

	AttrArtifactName    = "artifact.name"
	AttrArtifactVersion = "artifact.version"
	AttrArtifactID      = "artifact.id"
	AttrArtifactSize    = "artifact.size"

	AttrTokenID = "auth.token_id"

	AttrBlobBackend = "blob.backend"
	AttrBucket      = "storage.bucket"
	AttrKey         = "storage.key"

	AttrDBOperation = "db.operation"
)

// Span names.
const (
	SpanHTTPRequest = "http.request"

	SpanBlobPut    = "blob.put"
	SpanBlobGet    = "blob.get"
	SpanBlobDelete = "blob.delete"

	SpanStoreQuery = "store.query"
)

func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

func ArtifactName(name string) attribute.KeyValue {
	return attribute.String(AttrArtifactName, name)
}

func ArtifactVersion(version string) attribute.KeyValue {
	return attribute.String(AttrArtifactVersion, version)
}

func ArtifactID(id string) attribute.KeyValue {
	return attribute.String(AttrArtifactID, id)
}

func ArtifactSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrArtifactSize, size)
}

func TokenID(id string) attribute.KeyValue {
	return attribute.String(AttrTokenID, id)
}

func BlobBackend(name string) attribute.KeyValue {
	return attribute.String(AttrBlobBackend, name)
}

func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartBlobSpan starts a span for a blob backend operation on key.
func StartBlobSpan(ctx context.Context, name, backend, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{BlobBackend(backend), StorageKey(key)}, attrs...)
	return StartSpan(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(all...))
}

// StartStoreSpan starts a span for a metadata database operation.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String(AttrDBOperation, operation)}, attrs...)
	return StartSpan(ctx, SpanStoreQuery, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(all...))
}
