// Package config holds build metadata and the server's runtime configuration.
package config

// Build metadata, set via -ldflags:
//
//	go build -ldflags "-X github.com/edirooss/zrec-server/internal/config.Version=v1.2.0 \
//	  -X github.com/edirooss/zrec-server/internal/config.GitCommit=$(git rev-parse --short HEAD) \
//	  -X github.com/edirooss/zrec-server/internal/config.BuildDate=$(date -u +%FT%TZ)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
