package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ringmast4r/project147/pkg/loader"
)

// S3FileLoader loads data files from a bucket, below an optional key prefix.
type S3FileLoader struct {
	bucket string
	prefix string
	client *s3.Client
	cache  *loader.Cache
}

// NewS3FileLoaderWithClient reuses a configured client.
func NewS3FileLoaderWithClient(bucket, prefix string, client *s3.Client) *S3FileLoader {
	return &S3FileLoader{
		bucket: bucket,
		prefix: prefix,
		client: client,
		cache:  loader.NewCache(),
	}
}

// NewS3FileLoaderParams configures NewS3FileLoader.
//
// Endpoint allows S3 compatible storage such as MinIO; path style
// addressing is enabled when it is set.
type NewS3FileLoaderParams struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3FileLoader creates a loader with static credentials.
//
// Example:
//
//	l, err := s3.NewS3FileLoader(ctx, s3.NewS3FileLoaderParams{
//		Bucket:    "atlas-data",
//		Prefix:    "data",
//		Region:    "us-east-1",
//		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
//		SecretKey: os.Getenv("AWS_SECRET_KEY"),
//	})
func NewS3FileLoader(ctx context.Context, params NewS3FileLoaderParams) (*S3FileLoader, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(params.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = params.Endpoint != ""
	})

	return NewS3FileLoaderWithClient(params.Bucket, params.Prefix, client), nil
}

// Key returns the object key a DataFile path maps to.
func (l *S3FileLoader) Key(p string) string {
	if l.prefix == "" {
		return p
	}
	return path.Join(l.prefix, p)
}

func (l *S3FileLoader) GetFile(ctx context.Context, file loader.DataFile) ([]byte, error) {
	return l.cache.Do(file, func() ([]byte, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(l.Key(file.Path)),
		})
		if err != nil {
			var noKey *types.NoSuchKey
			if errors.As(err, &noKey) {
				return nil, fmt.Errorf("s3://%s/%s: %w", l.bucket, l.Key(file.Path), loader.ErrNotFound)
			}
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

func (l *S3FileLoader) Invalidate(paths ...string) {
	l.cache.Invalidate(paths...)
}
