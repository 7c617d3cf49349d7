// Package s3source loads the requirements matrix from an object in Amazon S3
// or any S3-compatible store. The object is decoded as JSON when its key ends
// in ".json" and as YAML otherwise.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// ErrInvalidConfig is returned by New when bucket, key or region is missing.
var ErrInvalidConfig = errors.New("invalid s3 requirements source config")

// Config locates the requirements object.
type Config struct {
	Bucket         string `env:"REQUIREMENTS_S3_BUCKET"`
	Key            string `env:"REQUIREMENTS_S3_KEY" envDefault:"requirements.yaml"`
	Region         string `env:"REQUIREMENTS_S3_REGION" envDefault:"us-east-1"`
	Endpoint       string `env:"REQUIREMENTS_S3_ENDPOINT"` // Optional: for S3-compatible services
	AccessKeyID    string `env:"REQUIREMENTS_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"REQUIREMENTS_S3_SECRET_KEY"`
	ForcePathStyle bool   `env:"REQUIREMENTS_S3_FORCE_PATH_STYLE" envDefault:"false"` // For MinIO and similar
}

// Client is the subset of *s3.Client used by Source.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Option configures New.
type Option func(*options)

type options struct {
	client     Client
	httpClient *http.Client
}

// WithClient sets a pre-configured client. Useful for testing with mocks.
func WithClient(c Client) Option {
	return func(o *options) { o.client = c }
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Source implements requirements.Source over an S3 object.
type Source struct {
	client Client
	bucket string
	key    string
}

var _ requirements.Source = (*Source)(nil)

// New creates a source for cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Source, error) {
	if cfg.Bucket == "" || cfg.Key == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}

		client = s3.NewFromConfig(awsConfig, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &Source{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
	}, nil
}

// Location returns the s3:// URI of the object.
func (s *Source) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Load fetches and decodes the object.
func (s *Source) Load(ctx context.Context) (requirements.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, s.classify(err)
	}
	defer out.Body.Close()

	if path.Ext(s.key) == ".json" {
		return requirements.DecodeJSON(out.Body)
	}
	return requirements.DecodeYAML(out.Body)
}

func (s *Source) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s not found", requirements.ErrSourceUnavailable, s.Location())
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return fmt.Errorf("%w: bucket %s not found", requirements.ErrSourceUnavailable, s.bucket)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: access denied to %s", requirements.ErrSourceUnavailable, s.Location())
		}
	}

	return errors.Join(requirements.ErrSourceUnavailable, err)
}
