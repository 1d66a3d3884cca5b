package main

import (
	"fmt"
	"os"

	"funding-core/cmd/funding-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
