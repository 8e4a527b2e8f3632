// Package storage uploads build artifacts to object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"

	"github.com/shamrozr/luxury-affairs/internal/platform/config"
)

var (
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
)

// Publisher uploads one named artifact.
type Publisher interface {
	Publish(ctx context.Context, name string, body []byte, contentType string) error
	Provider() string
	Close() error
}

// ObjectAttrs are the metadata applied to an uploaded object.
type ObjectAttrs struct {
	ContentType  string
	CacheControl string
}

// ObjectName joins an optional prefix and an artifact name into an object key.
func ObjectName(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// NewPublisher builds the publisher selected by cfg. It returns nil when publishing is disabled.
func NewPublisher(ctx context.Context, cfg config.PublishConfig) (Publisher, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderGCS:
		pub, err := NewGCSPublisher(ctx, GCSOptions{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			CacheControl:    cfg.CacheControl,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	case config.ProviderS3:
		pub, err := NewS3Publisher(ctx, S3Options{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			CacheControl:    cfg.CacheControl,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("storage: unknown provider %q", cfg.Provider)
	}
}

// GCSOptions configure a Cloud Storage publisher.
type GCSOptions struct {
	Bucket          string
	Prefix          string
	CacheControl    string
	CredentialsFile string
}

type gcsUploadFunc func(ctx context.Context, bucket, object string, attrs ObjectAttrs, body []byte) error

// GCSPublisher writes artifacts to a Cloud Storage bucket.
type GCSPublisher struct {
	bucket       string
	prefix       string
	cacheControl string
	upload       gcsUploadFunc
	close        func() error
}

// NewGCSPublisher constructs a GCSPublisher with its own Cloud Storage client.
func NewGCSPublisher(ctx context.Context, opts GCSOptions) (*GCSPublisher, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errInvalidBucket
	}
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	return newGCSPublisher(opts, gcsClientUpload(client), client.Close), nil
}

func newGCSPublisher(opts GCSOptions, upload gcsUploadFunc, closeFn func() error) *GCSPublisher {
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return &GCSPublisher{
		bucket:       strings.TrimSpace(opts.Bucket),
		prefix:       opts.Prefix,
		cacheControl: opts.CacheControl,
		upload:       upload,
		close:        closeFn,
	}
}

func gcsClientUpload(client *gcs.Client) gcsUploadFunc {
	return func(ctx context.Context, bucket, object string, attrs ObjectAttrs, body []byte) error {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = attrs.ContentType
		w.CacheControl = attrs.CacheControl
		if _, err := w.Write(body); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	}
}

// Provider implements Publisher.
func (p *GCSPublisher) Provider() string { return config.ProviderGCS }

// Publish implements Publisher.
func (p *GCSPublisher) Publish(ctx context.Context, name string, body []byte, contentType string) error {
	if strings.TrimSpace(name) == "" {
		return errInvalidObject
	}
	object := ObjectName(p.prefix, name)
	attrs := ObjectAttrs{ContentType: contentType, CacheControl: p.cacheControl}
	if err := p.upload(ctx, p.bucket, object, attrs, body); err != nil {
		return fmt.Errorf("storage: upload gs://%s/%s: %w", p.bucket, object, err)
	}
	return nil
}

// Close releases the underlying client.
func (p *GCSPublisher) Close() error { return p.close() }

// S3Options configure an S3 publisher.
type S3Options struct {
	Bucket          string
	Prefix          string
	CacheControl    string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher writes artifacts to an S3-compatible bucket.
type S3Publisher struct {
	client       PutObjectAPI
	bucket       string
	prefix       string
	cacheControl string
}

// NewS3Publisher loads AWS configuration and constructs an S3Publisher. A custom endpoint
// switches the client to path-style addressing for S3-compatible stores.
func NewS3Publisher(ctx context.Context, opts S3Options) (*S3Publisher, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errInvalidBucket
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3PublisherWithClient(client, opts), nil
}

// NewS3PublisherWithClient constructs an S3Publisher around an existing client.
func NewS3PublisherWithClient(client PutObjectAPI, opts S3Options) *S3Publisher {
	return &S3Publisher{
		client:       client,
		bucket:       strings.TrimSpace(opts.Bucket),
		prefix:       opts.Prefix,
		cacheControl: opts.CacheControl,
	}
}

// Provider implements Publisher.
func (p *S3Publisher) Provider() string { return config.ProviderS3 }

// Publish implements Publisher.
func (p *S3Publisher) Publish(ctx context.Context, name string, body []byte, contentType string) error {
	if strings.TrimSpace(name) == "" {
		return errInvalidObject
	}
	key := ObjectName(p.prefix, name)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	}
	if p.cacheControl != "" {
		input.CacheControl = aws.String(p.cacheControl)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("storage: upload s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}

// Close implements Publisher.
func (p *S3Publisher) Close() error { return nil }
