package s3store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/photoform/internal/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ blobstore.Store = (*Store)(nil)

func testConfig() Config {
	return Config{
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "leads",
		BaseEndpoint: "http://127.0.0.1:9000",
		UsePathStyle: true,
	}
}

// stubConstructors replaces the AWS constructors for the duration of the test.
func stubConstructors(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origPresign := putObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject = origPut
		presignGetObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func TestNew_AppliesRegionEndpointAndPathStyle(t *testing.T) {
	stubConstructors(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		if lo.Credentials == nil {
			t.Fatalf("credentials provider not applied")
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	s, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, DefaultPresignExpiry, s.cfg.PresignExpiry)
}

func TestNew_LoadConfigError(t *testing.T) {
	stubConstructors(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := New(context.Background(), testConfig())
	require.EqualError(t, err, "load-fail")
}

func TestPut_SendsBucketKeyTypeAndLength(t *testing.T) {
	stubConstructors(t)

	var got *s3.PutObjectInput
	var body string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		got = in
		b, _ := io.ReadAll(in.Body)
		body = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	s, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	ref, err := s.Put(context.Background(), strings.NewReader("jpegbytes"), "quote-uploads/1-ab-a.jpg",
		blobstore.Metadata{Size: 9, ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "quote-uploads/1-ab-a.jpg", ref.Key)

	require.NotNil(t, got)
	assert.Equal(t, "leads", aws.ToString(got.Bucket))
	assert.Equal(t, "quote-uploads/1-ab-a.jpg", aws.ToString(got.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(got.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "jpegbytes", body)
}

func TestPut_Error(t *testing.T) {
	stubConstructors(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("AccessDenied")
	}

	s, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = s.Put(context.Background(), strings.NewReader("x"), "k", blobstore.Metadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put k")
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestPublicURL_UsesPublicBaseURL(t *testing.T) {
	stubConstructors(t)
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		t.Fatal("presign must not be called when a public base URL is configured")
		return nil, nil
	}

	cfg := testConfig()
	cfg.PublicBaseURL = "https://cdn.example.com/leads"
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)

	u, err := s.PublicURL(context.Background(), blobstore.ObjectRef{Key: "quote-uploads/1-ab-a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/leads/quote-uploads/1-ab-a.jpg", u)
}

func TestPublicURL_PresignsGet(t *testing.T) {
	stubConstructors(t)

	var gotKey string
	var gotExpiry time.Duration
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotKey = aws.ToString(in.Key)
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		gotExpiry = po.Expires
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/leads/" + gotKey + "?X-Amz-Signature=abc"}, nil
	}

	cfg := testConfig()
	cfg.PresignExpiry = time.Hour
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)

	u, err := s.PublicURL(context.Background(), blobstore.ObjectRef{Key: "k/a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "k/a.jpg", gotKey)
	assert.Equal(t, time.Hour, gotExpiry)
	assert.Contains(t, u, "X-Amz-Signature")
}

func TestPublicURL_PresignError(t *testing.T) {
	stubConstructors(t)
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}

	s, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = s.PublicURL(context.Background(), blobstore.ObjectRef{Key: "k"})
	require.ErrorContains(t, err, "presign-get-fail")
}
