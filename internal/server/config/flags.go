package config

import (
	"flag"
	"os"
	"time"

	"github.com/memahdii/social-network/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   Redis address; empty string disables the cache
//	-t int      cache TTL, seconds
//	-v int      group-view TTL, seconds
//	-p int      provisioning wait timeout, seconds
//	-w int      provisioning queue workers
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags handled
// by the JSON loader.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-t", "-v", "-p", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address (empty disables cache)")

	cacheTTL := fs.Int("t", int(config.CacheTTL.Seconds()), "cache TTL (in seconds)")
	viewTTL := fs.Int("v", int(config.GroupViewTTL.Seconds()), "group view TTL (in seconds)")
	provisionTimeout := fs.Int("p", int(config.ProvisionTimeout.Seconds()), "provisioning timeout (in seconds)")

	fs.IntVar(&config.QueueWorkers, "w", config.QueueWorkers, "provisioning queue workers")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.CacheTTL = time.Duration(*cacheTTL) * time.Second
	config.GroupViewTTL = time.Duration(*viewTTL) * time.Second
	config.ProvisionTimeout = time.Duration(*provisionTimeout) * time.Second
}
