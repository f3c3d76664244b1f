// devloop is a CLI for the remote-development inner loop.
package main

import (
	"os"

	"github.com/hupe1980/devloop/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
