package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-n string   signing secret object name
//	-b string   secrets bucket name
//	-i string   token issuer
//	-o string   token audience
//	-t int      access token TTL, seconds
//	-r int      refresh token TTL, seconds
//	-k int      allowed clock skew, seconds
//	-u string   S3 access key
//	-p string   S3 secret key
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers in seconds.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-n", "-b", "-i", "-o", "-t", "-r", "-k", "-u", "-p", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretName, "n", config.SecretName, "signing secret object name")
	fs.StringVar(&config.SecretBucket, "b", config.SecretBucket, "secrets bucket")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "token issuer")
	fs.StringVar(&config.Audience, "o", config.Audience, "token audience")

	accessTokenTTL := fs.Int("t", int(config.AccessTokenTTL.Seconds()), "access token TTL (in seconds)")
	refreshTokenTTL := fs.Int("r", int(config.RefreshTokenTTL.Seconds()), "refresh token TTL (in seconds)")
	allowedClockSkew := fs.Int("k", int(config.AllowedClockSkew.Seconds()), "allowed clock skew (in seconds)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenTTL = time.Duration(*accessTokenTTL) * time.Second
	config.RefreshTokenTTL = time.Duration(*refreshTokenTTL) * time.Second
	config.AllowedClockSkew = time.Duration(*allowedClockSkew) * time.Second
}
