package bucket

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
)

// S3Config controls the S3-backed bucket lister.
type S3Config struct {
	// Region is the AWS region for credential/endpoint resolution.
	Region string

	// Endpoint overrides the S3 endpoint for S3-compatible stores
	// (MinIO, localstack). Path-style addressing is enabled when set.
	Endpoint string

	// Timeout bounds the enumeration call (default: 15s).
	Timeout time.Duration
}

// s3API is the one S3 operation this package consumes.
type s3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// S3Lister enumerates buckets with the S3 ListBuckets API.
type S3Lister struct {
	client  s3API
	timeout time.Duration
	retry   cerrors.RetryConfig
}

// NewS3Lister builds an S3 lister from ambient AWS credentials.
func NewS3Lister(ctx context.Context, cfg S3Config) (*S3Lister, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeMissingCreds, "failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &S3Lister{client: client, timeout: timeout, retry: cerrors.DefaultRetryConfig()}, nil
}

// newS3ListerWithClient is used by tests to inject a fake S3 API.
func newS3ListerWithClient(client s3API, timeout time.Duration, retry cerrors.RetryConfig) *S3Lister {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &S3Lister{client: client, timeout: timeout, retry: retry}
}

// List implements Lister. Transient enumeration failures are retried
// with exponential backoff; each attempt gets its own timeout.
func (l *S3Lister) List(ctx context.Context) ([]string, error) {
	return cerrors.RetryWithResult(ctx, l.retry, func() ([]string, error) {
		return l.listOnce(ctx)
	})
}

func (l *S3Lister) listOnce(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	out, err := l.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeBucketListFailed, "S3 ListBuckets failed", err)
	}

	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		if name := aws.ToString(b.Name); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
