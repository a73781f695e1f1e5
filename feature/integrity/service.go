package integrity

import (
	"context"
	"fmt"

	"test-manifest/core/manifest"
	"test-manifest/core/persist"
	"test-manifest/core/storage"
	"test-manifest/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Verifier checks the invariants of the current manifest.
type Verifier interface {
	Verify(ctx context.Context) ([]manifest.Problem, error)
}

// ManifestReport is the result of verifying the manifest store.
type ManifestReport struct {
	Location string             `json:"location"`
	Matched  bool               `json:"matched"`
	Problems []manifest.Problem `json:"problems"`
}

// Service handles integrity checks.
type Service struct {
	verifier Verifier
	location string
	client   storage.Client
	bucket   string
	object   string
	db       *gorm.DB
	logger   *zap.Logger
}

// Options configures the integrity service. Client and DB are optional; the
// checks that need them report an error when they are missing.
type Options struct {
	Verifier Verifier
	Location string
	Client   storage.Client
	Bucket   string
	Object   string
	DB       *gorm.DB
	Logger   *zap.Logger
}

// NewService creates a new integrity service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		verifier: opts.Verifier,
		location: opts.Location,
		client:   opts.Client,
		bucket:   opts.Bucket,
		object:   opts.Object,
		db:       opts.DB,
		logger:   logger,
	}
}

// CheckManifest verifies the manifest store invariants.
func (s *Service) CheckManifest(ctx context.Context) (*ManifestReport, error) {
	if s.verifier == nil {
		return nil, fmt.Errorf("manifest is not configured")
	}
	problems, err := s.verifier.Verify(ctx)
	if err != nil {
		return nil, err
	}
	if problems == nil {
		problems = []manifest.Problem{}
	}
	return &ManifestReport{
		Location: s.location,
		Matched:  len(problems) == 0,
		Problems: problems,
	}, nil
}

// CheckStorage verifies the bucket and the manifest object.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	var required []string
	if s.object != "" {
		required = []string{s.object}
	}
	return checks.CheckStorage(ctx, s.client, s.bucket, required)
}

// FixStorage creates the bucket when it is missing.
func (s *Service) FixStorage(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("storage client is nil")
	}
	return checks.FixStorage(ctx, s.client, s.bucket, s.logger)
}

// CheckSchema verifies the manifest documents table.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, persist.Document{})
}
