// Package main provides the tiercache CLI for inspecting and editing a
// filesystem cache directory.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
