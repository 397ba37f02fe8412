package config

import (
	"flag"
	"os"
	"time"

	"github.com/lvminh/farmdiary/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags. Arguments are
// filtered to the flags handled here so other packages' flags do not
// interfere.
//
//	-l string   listen address
//	-u string   upstream diary server base URL
//	-d string   local database path
//	-v string   gateway version
//	-i int      online check interval in seconds
//	-o string   diary owner id
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-l", "-u", "-d", "-v", "-i", "-o"})

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "address and port to listen on")
	fs.StringVar(&cfg.UpstreamBase, "u", cfg.UpstreamBase, "upstream diary server base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.Version, "v", cfg.Version, "gateway version")
	fs.StringVar(&cfg.OwnerID, "o", cfg.OwnerID, "diary owner id")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
}
