// Command parsort sweeps a parallel merge sort over pool sizes and
// sequential cutoffs and reports the fastest configuration per pool size.
package main

import (
	"context"
	"os"

	"github.com/agbru/parsort/internal/app"
	apperrors "github.com/agbru/parsort/internal/errors"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if app.HasVersionFlag(args[1:]) {
		app.PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	return application.Run(context.Background(), os.Stdout)
}
