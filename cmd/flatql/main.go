// Command flatql queries, edits and renders flat-file databases.
package main

import (
	"errors"
	"fmt"
	"os"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
)

// Exit codes.
const (
	exitFailure      = 1 // query or transaction failure
	exitCommandError = 2 // bad configuration or unreachable storage
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, dberrors.ErrValidation) || errors.Is(err, dberrors.ErrConnection) {
		return exitCommandError
	}
	return exitFailure
}
