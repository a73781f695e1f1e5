package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"test-manifest/core/manifest"

	"go.uber.org/zap"
)

// Backend stores a single serialized manifest document.
type Backend interface {
	// Location identifies the stored document; it keys the load cache.
	Location() string
	// Open returns the stored document. A missing document is reported as
	// manifest.ErrUnavailable.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error
}

// Load reads and decodes the document held by b. Only the given kinds are
// indexed; with none every kind is loaded.
func Load(ctx context.Context, b Backend, kinds ...manifest.Kind) (*manifest.Store, error) {
	rc, err := b.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return manifest.Decode(rc, kinds...)
}

// Write encodes s and saves it to b.
func Write(ctx context.Context, b Backend, s *manifest.Store) error {
	data, err := s.ToDocument()
	if err != nil {
		return err
	}
	if err := b.Save(ctx, data); err != nil {
		return fmt.Errorf("save manifest to %s: %w", b.Location(), err)
	}
	return nil
}

// LoadOrNew loads the document held by b and falls back to an empty store
// when the stored document cannot be used. A missing document, a version
// mismatch, a malformed document and a url base other than urlBase all lead
// to a rebuild. Any other failure is returned.
func LoadOrNew(ctx context.Context, b Backend, urlBase string, logger *zap.Logger, kinds ...manifest.Kind) (*manifest.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := logger.With(zap.String("location", b.Location()))

	s, err := Load(ctx, b, kinds...)
	switch {
	case err == nil:
		if urlBase == "" || s.URLBase() == urlBase {
			return s, nil
		}
		l.Info("Manifest url_base differs, rebuilding",
			zap.String("stored", s.URLBase()),
			zap.String("wanted", urlBase),
		)
	case errors.Is(err, manifest.ErrUnavailable):
		l.Debug("No prior manifest, building from scratch", zap.Error(err))
	case errors.Is(err, manifest.ErrVersionMismatch):
		l.Info("Manifest version changed, rebuilding", zap.Error(err))
	case errors.Is(err, manifest.ErrFormat):
		l.Warn("Manifest is corrupt, rebuilding", zap.Error(err))
	default:
		return nil, err
	}
	return manifest.New(urlBase), nil
}

// readCloser wraps in-memory content as an io.ReadCloser.
func readCloser(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}
