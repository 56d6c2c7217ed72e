// Package config handles configuration for the gateway: defaults, a JSON
// overlay, a dotenv/environment overlay and finally command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/photoform/internal/blobstore/s3store"
	"github.com/dmitrijs2005/photoform/internal/upload"
	"github.com/dmitrijs2005/photoform/internal/validator"
	playground "github.com/go-playground/validator/v10"
)

const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Config holds runtime settings for the photo form gateway.
//
// Fields:
//   - HTTPAddr: bind address of the gateway.
//   - DatabaseDSN: PostgreSQL DSN (pgx) of the attempt ledger; empty disables it.
//   - BlobBackend: "s3" or "local".
//   - LocalBlobDir / LocalBaseURL: where the local backend writes and how files are addressed.
//   - S3*: credentials and object storage settings for the S3-compatible backend.
//   - Category, MaxFiles, MaxBytesPerFile, AllowedTypePrefixes: upload policy.
//   - HostFieldName / FileFieldName: hidden URL field and multipart file part name.
//   - UpstreamURL / UpstreamTimeout: where accepted submissions are forwarded.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" validate:"required"`
	DatabaseDSN string `envconfig:"DATABASE_DSN"`

	BlobBackend  string `envconfig:"BLOB_BACKEND" validate:"oneof=s3 local"`
	LocalBlobDir string `envconfig:"LOCAL_BLOB_DIR" validate:"required_if=BlobBackend local"`
	LocalBaseURL string `envconfig:"LOCAL_BASE_URL" validate:"required_if=BlobBackend local"`

	S3RootUser      string        `envconfig:"S3_ROOT_USER"`
	S3RootPassword  string        `envconfig:"S3_ROOT_PASSWORD"`
	S3Bucket        string        `envconfig:"S3_BUCKET" validate:"required_if=BlobBackend s3"`
	S3Region        string        `envconfig:"S3_REGION" validate:"required_if=BlobBackend s3"`
	S3BaseEndpoint  string        `envconfig:"S3_BASE_ENDPOINT" validate:"omitempty,url"`
	S3PublicBaseURL string        `envconfig:"S3_PUBLIC_BASE_URL" validate:"omitempty,url"`
	S3PresignExpiry time.Duration `envconfig:"S3_PRESIGN_EXPIRY" validate:"gte=0"`
	S3UsePathStyle  bool          `envconfig:"S3_USE_PATH_STYLE"`

	Category            string   `envconfig:"CATEGORY" validate:"required"`
	MaxFiles            int      `envconfig:"MAX_FILES"`
	MaxBytesPerFile     int64    `envconfig:"MAX_BYTES_PER_FILE"`
	AllowedTypePrefixes []string `envconfig:"ALLOWED_TYPE_PREFIXES"`

	HostFieldName string `envconfig:"HOST_FIELD_NAME" validate:"required"`
	FileFieldName string `envconfig:"FILE_FIELD_NAME" validate:"required"`

	UpstreamURL     string        `envconfig:"UPSTREAM_URL" validate:"omitempty,url"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" validate:"gt=0"`

	LogLevel string `envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the S3 credentials match a local MinIO and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = ""
	c.BlobBackend = BackendS3
	c.LocalBlobDir = "uploads"
	c.LocalBaseURL = "http://127.0.0.1:8080/uploads"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "photoform"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PublicBaseURL = ""
	c.S3PresignExpiry = s3store.DefaultPresignExpiry
	c.S3UsePathStyle = true

	d := validator.DefaultConstraints()
	c.Category = upload.DefaultCategory
	c.MaxFiles = d.MaxCount
	c.MaxBytesPerFile = d.MaxBytesPerFile
	c.AllowedTypePrefixes = d.AllowedTypePrefixes

	c.HostFieldName = "Photos"
	c.FileFieldName = "photos"
	c.UpstreamURL = ""
	c.UpstreamTimeout = 15 * time.Second
	c.LogLevel = "info"
}

var validate = playground.New()

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// The upload policy is checked by the validator package itself.
	if err := c.Constraints().Check(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Constraints returns the selection policy.
func (c *Config) Constraints() validator.Constraints {
	return validator.Constraints{
		MaxCount:            c.MaxFiles,
		MaxBytesPerFile:     c.MaxBytesPerFile,
		AllowedTypePrefixes: append([]string(nil), c.AllowedTypePrefixes...),
	}
}

// S3 returns the object storage settings.
func (c *Config) S3() s3store.Config {
	return s3store.Config{
		Region:        c.S3Region,
		AccessKey:     c.S3RootUser,
		SecretKey:     c.S3RootPassword,
		Bucket:        c.S3Bucket,
		BaseEndpoint:  c.S3BaseEndpoint,
		PublicBaseURL: c.S3PublicBaseURL,
		PresignExpiry: c.S3PresignExpiry,
		UsePathStyle:  c.S3UsePathStyle,
	}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags. It panics when any layer fails or the result is invalid.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
