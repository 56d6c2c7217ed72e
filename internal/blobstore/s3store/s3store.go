// Package s3store implements blobstore.Store on top of S3 or an
// S3-compatible backend such as MinIO.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/photoform/internal/blobstore"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// DefaultPresignExpiry is the longest lifetime SigV4 allows for a presigned URL.
const DefaultPresignExpiry = 7 * 24 * time.Hour

// Config holds the S3 connection settings.
//
// When PublicBaseURL is set (a public bucket or a CDN in front of it), URLs
// are PublicBaseURL/key. Otherwise each URL is a presigned GET that expires
// after PresignExpiry.
type Config struct {
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	BaseEndpoint  string
	PublicBaseURL string
	PresignExpiry time.Duration
	UsePathStyle  bool
}

type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     Config
}

// New builds the S3 client. It does not contact the backend.
func New(ctx context.Context, c Config) (*Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = c.UsePathStyle
	})

	if c.PresignExpiry <= 0 {
		c.PresignExpiry = DefaultPresignExpiry
	}

	return &Store{client: client, presign: newS3PresignClient(client), cfg: c}, nil
}

func (s *Store) Put(ctx context.Context, body io.Reader, key string, meta blobstore.Metadata) (blobstore.ObjectRef, error) {
	// Plain-HTTP endpoints (MinIO in development) need a seekable body for payload signing.
	data, err := io.ReadAll(body)
	if err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("read %s: %w", key, err)
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if meta.ContentType != "" {
		in.ContentType = aws.String(meta.ContentType)
	}

	if _, err := putObject(s.client, ctx, in); err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("put %s: %w", key, err)
	}

	return blobstore.ObjectRef{Key: key}, nil
}

func (s *Store) PublicURL(ctx context.Context, ref blobstore.ObjectRef) (string, error) {
	if s.cfg.PublicBaseURL != "" {
		return blobstore.JoinURL(s.cfg.PublicBaseURL, ref.Key), nil
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(ref.Key),
	}, s3.WithPresignExpires(s.cfg.PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref.Key, err)
	}

	return req.URL, nil
}
