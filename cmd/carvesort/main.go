// Package main is the carvesort command. It sorts PhotoRec output by
// extension using the carver's DFXML report.
package main

import (
	"os"
)

func main() {
	// Execute has already printed the error and closed the log.
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
