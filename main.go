package main

import (
	"os"

	"github.com/adalundhe/codemod/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
