// Command fmmeval evaluates a synthetic point cloud under an analytic
// kernel using either a Fast Multipole Method or a Treecode approximation.
package main

import (
	"context"
	"os"

	"github.com/agbru/fmmeval/internal/app"
)

func main() {
	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, cancel := app.SetupSignals(context.Background())
	defer cancel()

	os.Exit(application.Run(ctx, os.Stdout))
}
