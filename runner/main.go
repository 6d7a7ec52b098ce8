package main

import (
	"os"

	"github.com/buildbench/runner/cli"
)

func main() {
	os.Exit(cli.Execute())
}
