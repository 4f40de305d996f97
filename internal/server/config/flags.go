package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/listings/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string     HTTP listen address (":8080" or a bare port)
//	-d string     database DSN (mongodb://, postgres://, memory://)
//	-n string     database name (document store)
//	-s string     JWT secret
//	-t duration   session token validity ("1h")
//	-o string     allowed CORS origin
//	-i string     image storage: s3 or local
//	-b string     S3 bucket
//	-g string     S3 region
//	-u string     S3 access key
//	-p string     S3 secret key
//	-e string     S3 base endpoint
//	-l string     access log path
//
// Only these flags are looked at; anything else in args is skipped.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-n", "-s", "-t", "-o", "-i", "-b", "-g", "-u", "-p", "-e", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseName, "n", config.DatabaseName, "database name")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "session token validity")
	fs.StringVar(&config.CORSOrigin, "o", config.CORSOrigin, "allowed CORS origin")
	fs.StringVar(&config.ImageStorage, "i", config.ImageStorage, "image storage (s3|local)")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.AccessLogPath, "l", config.AccessLogPath, "access log path")

	return fs.Parse(args)
}
