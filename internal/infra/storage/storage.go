// Package storage defines where pipeline artifacts are persisted.
package storage

import (
	"context"

	"github.com/vietddude/airwatch/internal/core/domain"
)

// Storer persists a batch of measurements and returns the path or URI
// of the written artifact. An empty batch returns an empty path
// without writing anything.
type Storer interface {
	Save(ctx context.Context, measurements []domain.Measurement) (string, error)
}

// Config selects and configures the storage backend. S3 wins when a
// bucket is set; otherwise artifacts go to the local output directory.
type Config struct {
	OutputDir string   `yaml:"output_dir"`
	S3        S3Config `yaml:"s3"`
}

// S3Config holds object storage settings.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}
