// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so manifest documents can be kept in a bucket
// on AWS S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - MakeBucket: Creates a new bucket if needed.
//   - PutObject: Uploads content (with size and options).
//   - GetObject: Retrieves content as a stream.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//
// EnsureBucket and ListNames build on these for the manifest backend and the
// integrity checks.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.EnsureBucket(ctx, client, "manifests")
package storage
