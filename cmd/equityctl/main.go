// Command equityctl manages the shareholders of a capacity pool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/lending/equity/internal/domain/equity"
)

// Exit codes
const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	code := report(os.Stdout, os.Stderr, err)
	stop()
	os.Exit(code)
}

// report prints err and returns the process exit code. A rejected mutation
// is a normal outcome and is printed as a JSON document on out.
func report(out, errOut io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	if me, ok := equity.AsMutationError(err); ok {
		if werr := writeJSON(out, newRejection(me)); werr != nil {
			fmt.Fprintf(errOut, "Error: %v\n", werr)
			return exitFailure
		}
		return exitRejected
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	return exitFailure
}
