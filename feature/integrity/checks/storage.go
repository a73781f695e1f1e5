package checks

import (
	"context"
	"fmt"

	"test-manifest/core/storage"

	"go.uber.org/zap"
)

// StorageReport describes the object store holding manifest documents.
type StorageReport struct {
	Bucket       string   `json:"bucket"`
	BucketExists bool     `json:"bucket_exists"`
	Objects      []string `json:"objects"`
	Missing      []string `json:"missing"`
}

// CheckStorage verifies that bucket exists and holds every required object.
func CheckStorage(ctx context.Context, client storage.Client, bucket string, required []string) (*StorageReport, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is nil")
	}

	report := &StorageReport{
		Bucket:  bucket,
		Objects: []string{},
		Missing: []string{},
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		report.Missing = append(report.Missing, required...)
		return report, nil
	}
	report.BucketExists = true

	names, err := storage.ListNames(ctx, client, bucket, "")
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	report.Objects = append(report.Objects, names...)

	for _, object := range required {
		if !present[object] {
			report.Missing = append(report.Missing, object)
		}
	}
	return report, nil
}

// FixStorage creates the bucket when it is missing. Missing documents are
// written by the next manifest update.
func FixStorage(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger) error {
	if err := storage.EnsureBucket(ctx, client, bucket); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Bucket ready", zap.String("bucket", bucket))
	return nil
}
