package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ayo6706/token-payout/internal/app"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrAborted) {
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}
