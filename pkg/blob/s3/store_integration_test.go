//go:build integration

package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/cask/pkg/blob"
)

// localstackEndpoint starts Localstack, or uses LOCALSTACK_ENDPOINT when set.
func localstackEndpoint(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		return endpoint
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack:3.0",
			ExposedPorts: []string{"4566/tcp"},
			Env: map[string]string{
				"SERVICES":              "s3",
				"DEFAULT_REGION":        "us-east-1",
				"EAGER_SERVICE_LOADING": "1",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("4566/tcp"),
				wait.ForHTTP("/_localstack/health").
					WithPort("4566/tcp").
					WithStartupTimeout(60*time.Second),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start localstack container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4566")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	cfg := blob.S3Config{
		Bucket:          fmt.Sprintf("cask-test-%d", time.Now().UnixNano()),
		Region:          "us-east-1",
		Endpoint:        localstackEndpoint(t),
		Prefix:          "artifacts/",
		ForcePathStyle:  true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}

	s, err := NewFromConfig(ctx, cfg)
	require.NoError(t, err)

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.Bucket)})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.HealthCheck(ctx))
	require.NoError(t, s.Put(ctx, "id-1", strings.NewReader("hello s3")))

	rc, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello s3", string(data))

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String("artifacts/id-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), aws.ToInt64(head.ContentLength))

	require.NoError(t, s.Delete(ctx, "id-1"))
	require.NoError(t, s.Delete(ctx, "id-1"))

	_, err = s.Get(ctx, "id-1")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestStore_HealthCheckMissingBucket(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.bucket = "does-not-exist"

	assert.Error(t, s.HealthCheck(ctx))
}
