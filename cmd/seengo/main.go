package main

import (
	"os"

	"github.com/hupe1980/seengo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
