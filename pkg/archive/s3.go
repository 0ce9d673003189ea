package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
)

const contentType = "application/x-ndjson"

// S3Client is the subset of *s3.Client the exporter uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidConfig)
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Exporter writes batches of entries as one object each.
type Exporter struct {
	client S3Client
	bucket string
	prefix string
	now    func() time.Time
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithClock overrides the clock used to name objects.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

func NewExporter(client S3Client, cfg Config, opts ...ExporterOption) (*Exporter, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client is required", ErrInvalidConfig)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}

	e := &Exporter{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Result describes a written object.
type Result struct {
	Bucket  string
	Key     string
	Entries int
	Bytes   int
}

// Location returns the s3:// URI of the object.
func (r Result) Location() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// Export uploads entries as <prefix>/<UTC timestamp>.jsonl. Every entry
// must pass its checksum; a tampered entry aborts the export.
func (e *Exporter) Export(ctx context.Context, entries []audit.Entry) (Result, error) {
	if len(entries) == 0 {
		return Result{}, ErrNothingToExport
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := entry.Verify(); err != nil {
			return Result{}, err
		}
		if err := enc.Encode(entry); err != nil {
			return Result{}, fmt.Errorf("encode entry %s: %w", entry.ID, err)
		}
	}

	key := path.Join(e.prefix, e.now().UTC().Format("20060102T150405Z")+".jsonl")
	size := buf.Len()
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(size)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return Result{}, fmt.Errorf("%w: %s: %s", ErrUploadFailed, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return Result{}, errors.Join(ErrUploadFailed, err)
	}

	return Result{Bucket: e.bucket, Key: key, Entries: len(entries), Bytes: size}, nil
}
