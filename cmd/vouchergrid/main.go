package main

import (
	"os"

	"github.com/odyssey-erp/vouchergrid/cmd/vouchergrid/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
