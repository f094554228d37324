package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures the s3:// fetcher.
type S3Config struct {
	Region          string // AWS region
	Endpoint        string // Optional custom endpoint for S3-compatible services
	AccessKeyID     string // Optional static credentials
	SecretAccessKey string
	UsePathStyle    bool // Use path-style addressing (MinIO and friends)
}

// ObjectGetter is the part of the S3 client the fetcher uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 fetches s3://bucket/key locators.
type S3 struct {
	client   ObjectGetter
	maxBytes int64
}

// NewS3 builds an S3 client from the default AWS configuration chain,
// overridden by cfg.
func NewS3(ctx context.Context, cfg S3Config, maxBytes int64) (*S3, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3WithClient(client, maxBytes), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client ObjectGetter, maxBytes int64) *S3 {
	return &S3{client: client, maxBytes: maxBytes}
}

// Fetch downloads the object.
func (f *S3) Fetch(ctx context.Context, locator string) (*Image, error) {
	bucket, key, err := parseS3Locator(locator)
	if err != nil {
		return nil, fail(locator, err)
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fail(locator, fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return nil, fail(locator, fmt.Errorf("failed to download object: %w", err))
	}
	defer out.Body.Close()

	if out.ContentLength != nil && f.maxBytes > 0 && *out.ContentLength > f.maxBytes {
		return nil, fail(locator, fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBytes))
	}
	data, err := readLimited(out.Body, f.maxBytes)
	if err != nil {
		return nil, fail(locator, err)
	}
	return &Image{Data: data, ContentType: aws.ToString(out.ContentType), Locator: locator}, nil
}

func parseS3Locator(locator string) (bucket, key string, err error) {
	u, err := url.Parse(locator)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: not an s3:// locator", ErrInvalidLocator)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: s3 locator needs a bucket and a key", ErrInvalidLocator)
	}
	return u.Host, key, nil
}
