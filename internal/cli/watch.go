package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/pa-ota/catalog/internal/scheduler"
	"github.com/pa-ota/catalog/updater"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errChecksDisabled = errors.New("scheduled checks are disabled (check.interval is 0)")

func newWatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "watch [rom|gapps|all]",
		Short:     "Check for updates periodically",
		Long:      `Runs scheduled checks every check.interval until interrupted. Found updates are logged.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: targetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.cfg.ChecksEnabled() {
				return errChecksDisabled
			}
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}

			targets, err := opts.targets(which, true, opts.transport())
			if err != nil {
				return err
			}

			checkers := make([]scheduler.Checker, 0, len(targets))
			for _, t := range targets {
				log := opts.log.WithField("updater", t.name)
				t.updater.AddListener(&updater.ListenerFuncs{
					Finish: func(pkgs []core.Package) {
						log.WithField("packages", len(pkgs)).Debug("Scheduled check finished")
					},
					Error: func(err error) {
						log.WithError(err).Warn("Scheduled check failed")
					},
				})
				checkers = append(checkers, t.updater)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts.log.WithFields(logrus.Fields{
				"interval": opts.cfg.Interval(),
				"updaters": len(checkers),
			}).Info("Watching for updates")

			err = scheduler.New(opts.cfg.Interval(), opts.log, checkers...).Run(ctx)
			for _, t := range targets {
				t.updater.Wait()
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	return cmd
}
