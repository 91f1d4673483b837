package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ahrav/go-livebench/internal/domain"
)

// Exit codes for different failure modes.
const (
	ExitSuccess     = 0 // Run completed
	ExitRunFailed   = 1 // One or more questions failed; answer file is resumable
	ExitConfigError = 2 // Fatal configuration error before any work started
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		if errors.Is(err, domain.ErrInvalidConfiguration) {
			os.Exit(ExitConfigError)
		}
		os.Exit(ExitRunFailed)
	}
}
