package main

import (
	"os"

	"github.com/saulo-duarte/engmcq-web/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
