package main

import (
	"os"

	"github.com/arclight-labs/kbctl/internal/adapters/driving/cli"
)

// version is overridden at build time:
//
//	go build -ldflags "-X main.version=v0.3.0" ./cmd/kbctl
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
