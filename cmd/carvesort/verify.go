package main

import (
	"errors"
	"fmt"

	"github.com/jamesainslie/carvesort/pkg/carvesort/digest"
	"github.com/jamesainslie/carvesort/pkg/carvesort/history"
	"github.com/spf13/cobra"
)

// errVerifyFailed is returned when any recorded file is missing or changed.
var errVerifyFailed = errors.New("verification failed")

var verifyCmd = &cobra.Command{
	Use:   "verify [id]",
	Short: "Re-hash the files of a recorded run",
	Long: `Recompute the content hash of every file a run sorted, at its final
location, and compare it with the recorded hash. Without an ID the most
recent run is checked. Exits non-zero on any mismatch or missing file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// Mismatch is a recorded file whose current state differs from the record.
type Mismatch struct {
	File history.FileRecord
	Got  string
	Err  error
}

// verifyEntry re-hashes every file in e.
func verifyEntry(e *history.Entry) ([]Mismatch, error) {
	algo, err := digest.Get(e.Algorithm)
	if err != nil {
		return nil, err
	}

	var bad []Mismatch
	for _, f := range e.Files {
		got, err := algo.File(f.Path)
		if err != nil {
			bad = append(bad, Mismatch{File: f, Err: err})
			continue
		}
		if got != f.Hash {
			bad = append(bad, Mismatch{File: f, Got: got})
		}
	}
	return bad, nil
}

// runVerify checks one run.
func runVerify(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}

	var e *history.Entry
	if len(args) == 1 {
		e, err = store.Get(args[0])
	} else {
		e, err = store.Latest()
	}
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	printVerbose("Verifying run %s (%d files, %s)", e.ID, len(e.Files), e.Algorithm)

	bad, err := verifyEntry(e)
	if err != nil {
		return err
	}

	for _, m := range bad {
		if m.Err != nil {
			printError("%s: %v", m.File.Path, m.Err)
			continue
		}
		printError("%s: recorded %s, now %s", m.File.Path, m.File.Hash, m.Got)
	}

	if len(bad) > 0 {
		return fmt.Errorf("%w: %d of %d files", errVerifyFailed, len(bad), len(e.Files))
	}

	printInfo("Verified %d files from run %s.", len(e.Files), shortID(e.ID))
	return nil
}
