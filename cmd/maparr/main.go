package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"maparr/internal/cli"
	"maparr/pkg/version"
)

// Populated at build time via -ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

func main() {
	version.Set(buildVersion, buildCommit, buildDate)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
