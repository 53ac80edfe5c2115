package main

import (
	"os"

	"github.com/kadlec/drover/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
