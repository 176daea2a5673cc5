// Package main provides the entry point for the dirscan directory size CLI.
package main

import (
	"os"

	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
)

func main() {
	err := Execute()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}
