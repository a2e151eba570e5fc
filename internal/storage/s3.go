package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ringmast4r/project147/internal/util"
)

// PresignExpiry is how long export download links stay valid.
const PresignExpiry = 15 * time.Minute

var ErrNotFound = errors.New("object not found")

// Client stores export artefacts in one bucket.
type Client struct {
	s3             *s3.Client
	bucket         string
	publicEndpoint string
}

type ClientParams struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
}

func ClientParamsFromEnv() ClientParams {
	return ClientParams{
		Bucket:         util.GetEnv("AWS_BUCKET"),
		Region:         util.GetEnvString("AWS_REGION", "us-east-1"),
		Endpoint:       util.GetEnv("AWS_ENDPOINT"),
		PublicEndpoint: util.GetEnv("AWS_PUBLIC_ENDPOINT"),
		AccessKey:      util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey:      util.GetEnv("AWS_SECRET_KEY"),
	}
}

func NewClient(ctx context.Context, params ClientParams) (*Client, error) {
	if params.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(params.Region)}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}
	if params.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &Client{s3: client, bucket: params.Bucket, publicEndpoint: params.PublicEndpoint}, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

// Put uploads content under key. The content type is derived from the key's
// extension.
func (c *Client) Put(ctx context.Context, key string, content []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(ContentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s from S3: %w", key, err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return content, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}

// PresignGet returns a time limited download link. When a public endpoint is
// configured the link is signed for that host, so that browsers outside the
// internal network can use it.
func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	presignClient := c.s3
	prefix := ""
	if c.publicEndpoint != "" {
		base, p, err := SplitPublicEndpoint(c.publicEndpoint)
		if err != nil {
			return "", err
		}
		prefix = p
		presignClient = s3.NewFromConfig(
			aws.Config{
				Region:      c.s3.Options().Region,
				Credentials: c.s3.Options().Credentials,
				HTTPClient:  c.s3.Options().HTTPClient,
			},
			func(o *s3.Options) {
				o.BaseEndpoint = aws.String(base)
				o.UsePathStyle = true
			},
		)
	}

	out, err := s3.NewPresignClient(presignClient).PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(PresignExpiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}
	return WithPathPrefix(out.URL, prefix)
}

// SplitPublicEndpoint separates "https://host/prefix" into the base endpoint
// used for signing and the path prefix of a reverse proxy.
func SplitPublicEndpoint(endpoint string) (base, prefix string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("invalid AWS_PUBLIC_ENDPOINT: %s", endpoint)
	}
	return u.Scheme + "://" + u.Host, strings.TrimSuffix(u.Path, "/"), nil
}

// WithPathPrefix prepends prefix to the path of a signed URL.
func WithPathPrefix(signed, prefix string) (string, error) {
	if prefix == "" {
		return signed, nil
	}
	u, err := url.Parse(signed)
	if err != nil {
		return "", fmt.Errorf("failed to parse presigned url: %w", err)
	}
	u.Path = prefix + u.Path
	return u.String(), nil
}

func ContentType(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
