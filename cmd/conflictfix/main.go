package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/danieljhkim/conflictfix/internal/cli"
)

var version = "dev"

func main() {
	// A project .env may set CONFLICTFIX_ROOT or CONFLICTFIX_LOG_LEVEL.
	_ = godotenv.Load()

	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
