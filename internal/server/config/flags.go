package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/photoform/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN of the attempt ledger
//	-k string   blob backend, "s3" or "local"
//	-l string   local blob directory
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n int      max files per submission
//	-z int      max bytes per file
//	-t string   comma-separated allowed content type prefixes
//	-f string   upstream form action URL
//	-v string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-l", "-u", "-p", "-b", "-g", "-e", "-n", "-z", "-t", "-f", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "k", config.BlobBackend, "blob backend (s3|local)")
	fs.StringVar(&config.LocalBlobDir, "l", config.LocalBlobDir, "local blob directory")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.MaxFiles, "n", config.MaxFiles, "max files per submission")
	fs.Int64Var(&config.MaxBytesPerFile, "z", config.MaxBytesPerFile, "max bytes per file")
	types := fs.String("t", strings.Join(config.AllowedTypePrefixes, ","), "allowed content type prefixes")

	fs.StringVar(&config.UpstreamURL, "f", config.UpstreamURL, "upstream form action URL")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *types != "" {
		config.AllowedTypePrefixes = strings.Split(*types, ",")
	}
}
