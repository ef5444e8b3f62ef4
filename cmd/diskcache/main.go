// Package main is the entry point for the diskcache maintenance CLI.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if !errors.Is(err, errMiss) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
