package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"test-manifest/core/manifest"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is a manifest document row. Version and URLBase mirror the
// document header so stored manifests can be listed without decoding them.
type Document struct {
	Name      string    `gorm:"column:name;primaryKey;size:191"`
	Version   int       `gorm:"column:version"`
	URLBase   string    `gorm:"column:url_base;size:255"`
	Content   string    `gorm:"column:content;type:longtext"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table holding manifest documents.
func (Document) TableName() string {
	return "manifest_documents"
}

// DatabaseBackend keeps the document in a database row keyed by name.
type DatabaseBackend struct {
	db   *gorm.DB
	name string
}

// NewDatabaseBackend returns a backend for the named document.
func NewDatabaseBackend(db *gorm.DB, name string) *DatabaseBackend {
	return &DatabaseBackend{db: db, name: name}
}

// Prepare creates or migrates the documents table.
func (d *DatabaseBackend) Prepare() error {
	if err := d.db.AutoMigrate(&Document{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", Document{}.TableName(), err)
	}
	return nil
}

// Location returns the table and document name.
func (d *DatabaseBackend) Location() string {
	return "database:" + Document{}.TableName() + "/" + d.name
}

// Open loads the document row.
func (d *DatabaseBackend) Open(ctx context.Context) (io.ReadCloser, error) {
	var doc Document
	err := d.db.WithContext(ctx).Where("name = ?", d.name).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", manifest.ErrUnavailable, d.Location())
		}
		return nil, fmt.Errorf("failed to load %s: %w", d.Location(), err)
	}
	return readCloser([]byte(doc.Content)), nil
}

// Save inserts or replaces the document row.
func (d *DatabaseBackend) Save(ctx context.Context, data []byte) error {
	header := gjson.GetManyBytes(data, "version", "url_base")
	doc := Document{
		Name:      d.name,
		Version:   int(header[0].Int()),
		URLBase:   header[1].String(),
		Content:   string(data),
		UpdatedAt: time.Now(),
	}

	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", d.Location(), err)
	}
	return nil
}

// List returns the stored documents without their content.
func (d *DatabaseBackend) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := d.db.WithContext(ctx).
		Select("name", "version", "url_base", "updated_at").
		Order("name").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list manifest documents: %w", err)
	}
	return docs, nil
}
