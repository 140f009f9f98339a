package main

import (
	"os"

	"github.com/lugondev/go-agora/cmd/agora/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
