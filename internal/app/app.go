package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/agbru/parsort/internal/cli"
	"github.com/agbru/parsort/internal/config"
	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/logging"
	"github.com/agbru/parsort/internal/server"
	"github.com/agbru/parsort/internal/sweep"
	"github.com/agbru/parsort/internal/ui"
)

// Application is one parsort invocation.
type Application struct {
	Config config.AppConfig
	// ErrWriter receives diagnostics and logs (typically os.Stderr).
	ErrWriter io.Writer
}

// New parses args (including the program name) into an Application.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "parsort"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	return &Application{Config: cfg, ErrWriter: errWriter}, nil
}

// IsHelpError reports whether err comes from -h or -help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// Run executes the configured command and returns the process exit code.
// When an export writes to standard output, the reports, progress and
// status lines go to ErrWriter so that out carries only the export.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.Init(a.Config.NoColor)

	if a.Config.ShowParallelism {
		cli.PrintParallelism(out)
		return apperrors.ExitSuccess
	}

	logger := a.newLogger()

	plan, err := a.Config.ToPlan()
	if err != nil {
		return apperrors.HandleSweepError(err, 0, a.ErrWriter, ui.YellowReset{})
	}

	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	report := out
	if a.Config.ExportsToStdout() {
		report = a.ErrWriter
	}
	return a.runSweep(ctx, plan, logger, out, report)
}

func (a *Application) newLogger() *logging.ZerologAdapter {
	level, err := logging.ParseLevel(a.Config.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	if a.Config.LogJSON {
		return logging.NewLogger(a.ErrWriter, "parsort", level)
	}
	return logging.NewConsoleLogger(a.ErrWriter, "parsort", level, a.Config.NoColor)
}

func (a *Application) runSweep(ctx context.Context, plan sweep.Plan, logger logging.Logger, out, report io.Writer) int {
	var current atomic.Pointer[sweep.Progress]
	stopServer := a.startTelemetry(ctx, logger, &current)
	defer stopServer()

	if !a.Config.Quiet {
		cli.PrintPlan(plan, report)
		a.showProfile(plan, logger, report)
	}

	updates := make(chan sweep.Progress, 16)
	var wg sync.WaitGroup
	if !a.Config.Quiet {
		wg.Add(1)
		go cli.DisplayProgress(&wg, updates, report)
	}
	onProgress := func(p sweep.Progress) {
		current.Store(&p)
		if !a.Config.Quiet {
			updates <- p
		}
	}

	res, runErr := sweep.Run(ctx, plan,
		sweep.WithLogger(logger),
		sweep.WithProgress(onProgress),
	)
	close(updates)
	wg.Wait()

	if res == nil {
		return apperrors.HandleSweepError(runErr, 0, a.ErrWriter, ui.YellowReset{})
	}
	interrupted := apperrors.IsContextError(runErr)
	if interrupted {
		logger.Info("sweep interrupted",
			logging.Int("samples", len(res.Samples)),
			logging.String("reason", runErr.Error()),
		)
	}

	a.report(res, report)

	if err := a.export(res, out); err != nil {
		logger.Error("export failed", err)
		fmt.Fprintf(a.ErrWriter, "Error writing results: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	// An interrupted sweep has not measured every level; its minima are
	// not comparable with a full run.
	if a.Config.SaveProfile && !interrupted {
		a.saveProfile(res, logger, report)
	}

	if runErr == nil {
		runErr = res.Err()
	}
	return apperrors.HandleSweepError(runErr, res.Duration(), report, ui.YellowReset{})
}

// startTelemetry serves /metrics, /healthz and /status while the sweep
// runs. The returned function stops the server and waits for it.
func (a *Application) startTelemetry(ctx context.Context, logger logging.Logger, current *atomic.Pointer[sweep.Progress]) func() {
	if a.Config.MetricsAddr == "" {
		return func() {}
	}
	srv := server.New(a.Config.MetricsAddr,
		server.WithLogger(logger),
		server.WithStatus(func() any {
			if p := current.Load(); p != nil {
				return p
			}
			return sweep.Progress{}
		}),
	)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Start(ctx, nil); err != nil {
			logger.Error("telemetry server failed", err, logging.String("addr", a.Config.MetricsAddr))
			fmt.Fprintf(a.ErrWriter, "Telemetry server error: %v\n", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (a *Application) report(res *sweep.Result, out io.Writer) {
	if a.Config.Quiet {
		cli.PrintBest(res, out)
		return
	}
	fmt.Fprintln(out)
	for _, s := range res.Summaries {
		if a.Config.Verbose {
			for _, sample := range res.Samples {
				if sample.Parallelism == s.Parallelism {
					cli.PrintSample(sample, out)
				}
			}
		}
		cli.PrintLevel(s, out)
	}
	cli.PrintSummary(res, out)
}

func (a *Application) export(res *sweep.Result, out io.Writer) error {
	if err := writeExport(a.Config.CSVOutput, res, cli.WriteCSV, out); err != nil {
		return apperrors.WrapError(err, "csv export to %s", a.Config.CSVOutput)
	}
	if err := writeExport(a.Config.JSONOutput, res, cli.WriteJSON, out); err != nil {
		return apperrors.WrapError(err, "json export to %s", a.Config.JSONOutput)
	}
	return nil
}

func writeExport(path string, res *sweep.Result, write func(io.Writer, *sweep.Result) error, out io.Writer) error {
	switch path {
	case "":
		return nil
	case config.StdoutPath:
		return write(out, res)
	default:
		return cli.WriteFile(path, res, write)
	}
}

func (a *Application) profilePath() string {
	if a.Config.ProfilePath != "" {
		return a.Config.ProfilePath
	}
	return sweep.DefaultProfilePath()
}

// showProfile prints the cutoffs a previous -save-profile run stored for
// this machine, when the profile is still trustworthy.
func (a *Application) showProfile(plan sweep.Plan, logger logging.Logger, out io.Writer) {
	path := a.profilePath()
	profile, err := sweep.LoadProfile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no stored profile", logging.String("path", path))
		return
	case err != nil:
		logger.Error("failed to load profile", err, logging.String("path", path))
		return
	case !profile.IsValid():
		fmt.Fprintf(out, "Stored profile %s was measured on different hardware; ignoring it.\n", path)
		return
	case profile.IsStale(sweep.DefaultProfileMaxAge):
		fmt.Fprintf(out, "Stored profile %s is older than %d days; ignoring it.\n",
			path, int(sweep.DefaultProfileMaxAge.Hours()/24))
		return
	}
	cli.PrintProfile(profile, plan.ParallelismLevels(), out)
}

func (a *Application) saveProfile(res *sweep.Result, logger logging.Logger, out io.Writer) {
	path := a.profilePath()
	if _, err := sweep.UpdateProfile(path, res); err != nil {
		logger.Error("failed to save profile", err, logging.String("path", path))
		fmt.Fprintf(a.ErrWriter, "Warning: could not save profile: %v\n", err)
		return
	}
	if !a.Config.Quiet {
		fmt.Fprintf(out, "Profile saved to %s\n", path)
	}
}
