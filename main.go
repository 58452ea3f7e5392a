package main

import (
	"os"

	"github.com/codalotl/streamfill/internal/cli"
)

func main() {
	code, _ := cli.Run(os.Args, nil)
	os.Exit(code)
}
