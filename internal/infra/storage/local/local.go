// Package local persists measurement CSVs on the local filesystem.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/infra/storage/csvenc"
)

// Storer writes CSV artifacts under a local directory.
type Storer struct {
	outputDir string
	log       *slog.Logger
	now       func() time.Time
}

// NewStorer creates a local storer rooted at outputDir. The directory
// is created on first save.
func NewStorer(outputDir string) *Storer {
	return &Storer{
		outputDir: outputDir,
		log:       slog.Default().With("component", "storage.local"),
		now:       time.Now,
	}
}

// Save writes measurements as a CSV file and returns its path.
func (s *Storer) Save(_ context.Context, measurements []domain.Measurement) (string, error) {
	if len(measurements) == 0 {
		s.log.Warn("no measurements to save")
		return "", nil
	}

	data, err := csvenc.Encode(measurements)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(s.outputDir, csvenc.Filename(s.now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}

	s.log.Info("saved measurements", "path", path, "count", len(measurements))
	return path, nil
}
