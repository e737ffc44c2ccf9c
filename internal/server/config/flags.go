package config

import (
	"flag"
	"os"
	"time"

	"github.com/atelierhq/chipverify/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-m string   verifier mode ("production" or "development")
//	-k string   dev bypass code (development mode only)
//	-o string   CORS allowed origin
//	-w int      store timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-i int      archive interval, minutes
//	-n int      archive batch size
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-m", "-k", "-o", "-w", "-u", "-p", "-b", "-g", "-e", "-i", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.VerifierMode, "m", config.VerifierMode, "verifier mode (production|development)")
	fs.StringVar(&config.DevBypassCode, "k", config.DevBypassCode, "dev bypass code")
	fs.StringVar(&config.CORSAllowOrigin, "o", config.CORSAllowOrigin, "CORS allowed origin")

	storeTimeout := fs.Int("w", int(config.StoreTimeout.Seconds()), "store timeout (in seconds)")
	archiveInterval := fs.Int("i", int(config.ArchiveInterval.Minutes()), "archive interval (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.ArchiveBatchSize, "n", config.ArchiveBatchSize, "archive batch size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
	config.ArchiveInterval = time.Duration(*archiveInterval) * time.Minute
}
