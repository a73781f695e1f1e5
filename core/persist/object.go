package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"test-manifest/core/manifest"
	"test-manifest/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectBackend keeps the document as an object in a bucket.
type ObjectBackend struct {
	client storage.Client
	bucket string
	object string
}

// NewObjectBackend returns a backend for bucket/object.
func NewObjectBackend(client storage.Client, bucket, object string) *ObjectBackend {
	return &ObjectBackend{client: client, bucket: bucket, object: object}
}

// Location returns the bucket and object name.
func (o *ObjectBackend) Location() string {
	return "object:" + o.bucket + "/" + o.object
}

// Open downloads the whole object. Missing buckets and objects are reported
// as manifest.ErrUnavailable.
func (o *ObjectBackend) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, o.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, o.classify(err)
	}
	defer obj.Close()

	// minio defers request errors to the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, o.classify(err)
	}
	return readCloser(data), nil
}

// Save uploads the document, creating the bucket if needed.
func (o *ObjectBackend) Save(ctx context.Context, data []byte) error {
	if err := storage.EnsureBucket(ctx, o.client, o.bucket); err != nil {
		return err
	}

	_, err := o.client.PutObject(ctx, o.bucket, o.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", o.object, err)
	}
	return nil
}

func (o *ObjectBackend) classify(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s: %v", manifest.ErrUnavailable, o.Location(), err)
	default:
		return fmt.Errorf("failed to download %s: %w", o.Location(), err)
	}
}
