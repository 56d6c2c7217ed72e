package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/photoform/internal/flagx"
	"github.com/dmitrijs2005/photoform/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON layer. Durations accept
// both "15s" strings and integer nanoseconds.
type JsonConfig struct {
	HTTPAddr            string         `json:"http_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	BlobBackend         string         `json:"blob_backend"`
	LocalBlobDir        string         `json:"local_blob_dir"`
	LocalBaseURL        string         `json:"local_base_url"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3PublicBaseURL     string         `json:"s3_public_base_url"`
	S3PresignExpiry     timex.Duration `json:"s3_presign_expiry"`
	S3UsePathStyle      *bool          `json:"s3_use_path_style"`
	Category            string         `json:"category"`
	MaxFiles            int            `json:"max_files"`
	MaxBytesPerFile     int64          `json:"max_bytes_per_file"`
	AllowedTypePrefixes []string       `json:"allowed_type_prefixes"`
	HostFieldName       string         `json:"host_field_name"`
	FileFieldName       string         `json:"file_field_name"`
	UpstreamURL         string         `json:"upstream_url"`
	UpstreamTimeout     timex.Duration `json:"upstream_timeout"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays the JSON file named by -c/-config onto config.
// Keys that are absent (zero) in the file keep their current value.
// A missing or malformed file panics.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlags().JSON

	// nothing to load
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.LocalBlobDir, c.LocalBlobDir)
	setString(&config.LocalBaseURL, c.LocalBaseURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	if c.S3PresignExpiry.Duration != 0 {
		config.S3PresignExpiry = c.S3PresignExpiry.Duration
	}
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	setString(&config.Category, c.Category)
	if c.MaxFiles != 0 {
		config.MaxFiles = c.MaxFiles
	}
	if c.MaxBytesPerFile != 0 {
		config.MaxBytesPerFile = c.MaxBytesPerFile
	}
	if len(c.AllowedTypePrefixes) > 0 {
		config.AllowedTypePrefixes = c.AllowedTypePrefixes
	}
	setString(&config.HostFieldName, c.HostFieldName)
	setString(&config.FileFieldName, c.FileFieldName)
	setString(&config.UpstreamURL, c.UpstreamURL)
	if c.UpstreamTimeout.Duration != 0 {
		config.UpstreamTimeout = c.UpstreamTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
