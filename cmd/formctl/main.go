// Command formctl builds forms from OpenAPI schema components. It prints
// defaults, condition maps and validation results as JSON, renders HTML and
// fills forms interactively in the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	cmd := newRootCmd(environment{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errPrinted) {
			fmt.Fprintln(os.Stderr, "formctl:", err)
		}
		return 1
	}
	return 0
}
