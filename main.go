package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quartzproof/rigprep/common"
	"github.com/quartzproof/rigprep/config"
	"github.com/quartzproof/rigprep/executor"
	"github.com/quartzproof/rigprep/logger"
	"github.com/quartzproof/rigprep/phase"
	"github.com/quartzproof/rigprep/runner"
	"github.com/quartzproof/rigprep/runtime"
)

type options struct {
	configPath string
	logDir     string
	workDir    string
	dryRun     bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(common.ExitStepFailed)
		}
		os.Exit(common.ExitConfigError)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [%s]", common.AppName, common.PhasePostReboot),
		Short: "Prepare a fresh GPU instance for the proving benchmark",
		Long: `rigprep provisions a multi-GPU cloud instance for the proving benchmark
in two phases separated by the driver-activation reboot.

Run it without arguments on a fresh instance to install the toolchain,
the prover CLI and the GPU stack; the machine reboots when the phase
completes. After the reboot, run 'rigprep post-reboot' to bring up the
container stack and launch the benchmark.

Both phases are idempotent: steps probe for the state they establish
and skip themselves when it is already in place, so a failed run can
be retried after fixing the cause.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{common.PhasePostReboot},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			phaseName := common.PhasePreReboot
			if len(args) == 1 {
				phaseName = args[0]
			}
			return runPhase(cmd.Context(), phaseName, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML settings file (built-in defaults when omitted)")
	cmd.Flags().StringVar(&opts.logDir, "log-dir", "/var/log/"+common.AppName, "Directory for rotated log files (empty disables file logging)")
	cmd.Flags().StringVar(&opts.workDir, "work-dir", "", "Scratch directory for downloaded installers")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log the provisioning plan without changing the machine")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// runPhase wires the process together and exits with the outcome's code.
// Everything that goes wrong before the phase starts is a configuration
// error; from the first precondition onward the outcome decides.
func runPhase(ctx context.Context, phaseName string, opts *options) error {
	if err := logger.InitGlobalLogger(opts.logDir, opts.verbose, logrus.InfoLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(common.ExitConfigError)
	}
	log := logger.Log.WithField(common.LogFieldApp, common.AppName)

	settings, err := config.LoadFrom(opts.configPath)
	if err != nil {
		log.Errorf("configuration rejected: %v", err)
		os.Exit(common.ExitConfigError)
	}

	p, err := phase.Get(phaseName, settings)
	if err != nil {
		log.Errorf("unknown phase %q, valid phases are %v", phaseName, phase.Names())
		os.Exit(common.ExitConfigError)
	}

	cmdRunner := runner.NewCmdRunner(executor.NewLocalExecutor(),
		runner.WithDryRun(opts.dryRun),
		runner.WithLogger(log),
	)
	rt, err := runtime.NewRuntime(runtime.Config{
		Settings: settings,
		Runner:   cmdRunner,
		WorkDir:  opts.workDir,
		Verbose:  opts.verbose,
		DryRun:   opts.dryRun,
	})
	if err != nil {
		log.Errorf("runtime setup failed: %v", err)
		os.Exit(common.ExitConfigError)
	}

	if opts.dryRun {
		log.Warnf("dry-run: commands are logged, nothing is executed")
	}

	outcome := phase.NewRunner(rt, logger.Log.ForRun(rt.RunID())).Run(ctx, p)

	fmt.Print(outcome.Summary())
	if code := outcome.ExitCode(); code != common.ExitSuccess {
		os.Exit(code)
	}
	return nil
}
