package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/pcrdb/cmd"
	"github.com/tphakala/pcrdb/internal/buildinfo"
	"github.com/tphakala/pcrdb/internal/config"
)

// Set with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	ctx := config.NewContext(buildinfo.NewContext(version, buildDate))
	defer ctx.Close()

	rootCmd := cmd.RootCommand(ctx)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Close()
		os.Exit(1)
	}
}
