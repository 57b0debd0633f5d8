package main

import (
	"fmt"
	"os"

	"github.com/harshithgowdakt/granulekey/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "keycond: %v\n", err)
		os.Exit(1)
	}
}
