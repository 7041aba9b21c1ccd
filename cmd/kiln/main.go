// Command kiln compiles a static site incrementally.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/roach88/kiln/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
