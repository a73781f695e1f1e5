// Package mocks provides a testify mock of storage.Client.
package mocks

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
)

// Client mocks storage.Client. Expectations are set with On, e.g.
//
//	client.On("BucketExists", mock.Anything, "manifests").Return(true, nil)
type Client struct {
	mock.Mock
}

// Objects returns a closed listing channel holding one object per key, for
// use as the return value of a ListObjects expectation.
func Objects(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		ch <- minio.ObjectInfo{Key: key}
	}
	close(ch)
	return ch
}

func (m *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *Client) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucket, opts).Error(0)
}

func (m *Client) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucket, object, reader, size, opts)
	info, _ := args.Get(0).(minio.UploadInfo)
	return info, args.Error(1)
}

func (m *Client) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, object, opts)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.Error(1)
}

// ListObjects returns the channel given to Return, or an empty listing.
func (m *Client) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucket, opts)
	if ch, ok := args.Get(0).(<-chan minio.ObjectInfo); ok {
		return ch
	}
	return Objects()
}
