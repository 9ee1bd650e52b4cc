// Package s3 persists measurement CSVs in S3-compatible object
// storage.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/infra/storage"
	"github.com/vietddude/airwatch/internal/infra/storage/csvenc"
)

// uploader is the slice of the S3 API the storer needs.
type uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Storer uploads CSV artifacts to an S3 bucket.
type Storer struct {
	bucket string
	prefix string
	client uploader
	log    *slog.Logger
	now    func() time.Time
}

// NewStorer creates an S3 storer using the default credential chain
// (env, shared config, instance role).
func NewStorer(ctx context.Context, cfg storage.S3Config) (*Storer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Storer{
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		client: s3.NewFromConfig(awsCfg),
		log:    slog.Default().With("component", "storage.s3"),
		now:    time.Now,
	}, nil
}

// Save uploads measurements as a CSV object and returns its s3:// URI.
func (s *Storer) Save(ctx context.Context, measurements []domain.Measurement) (string, error) {
	if len(measurements) == 0 {
		s.log.Warn("no measurements to save")
		return "", nil
	}

	data, err := csvenc.Encode(measurements)
	if err != nil {
		return "", err
	}

	key := path.Join(s.prefix, csvenc.Filename(s.now()))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	uri := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.log.Info("uploaded measurements", "uri", uri, "count", len(measurements))
	return uri, nil
}
