package main

import (
	"os"

	"github.com/bianoble/filemirror/cmd/filemirror/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
