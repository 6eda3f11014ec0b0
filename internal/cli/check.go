package cli

import (
	"context"
	"fmt"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/pa-ota/catalog/updater"
	"github.com/spf13/cobra"
)

type checkResult struct {
	Updater   string
	Installed string
	Packages  []core.Package
	Error     string
}

// packageView is a package as printed by --output json|yaml.
type packageView struct {
	core.Package `yaml:",inline"`
	PURL         string `json:"purl" yaml:"purl"`
}

type checkView struct {
	Updater   string        `json:"updater" yaml:"updater"`
	Installed string        `json:"installed" yaml:"installed"`
	Packages  []packageView `json:"packages" yaml:"packages"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r checkResult) view() checkView {
	v := checkView{
		Updater:   r.Updater,
		Installed: r.Installed,
		Packages:  make([]packageView, len(r.Packages)),
		Error:     r.Error,
	}
	for i, p := range r.Packages {
		v.Packages[i] = packageView{Package: p, PURL: p.PURL()}
	}
	return v
}

func newCheckCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "check [rom|gapps|all]",
		Short:     "Check for updates once",
		Long:      `Queries the configured catalogs and prints the available updates, newest first.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: targetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}

			targets, err := opts.targets(which, false, opts.transport())
			if err != nil {
				return err
			}

			results := runChecks(cmd.Context(), targets)
			if err := opts.printer(cmd).checkResults(results); err != nil {
				return err
			}
			return failedChecks(results)
		},
	}
	return cmd
}

// runChecks starts every updater and waits for all of them.
func runChecks(ctx context.Context, targets []target) []checkResult {
	results := make([]checkResult, len(targets))
	for i, t := range targets {
		results[i] = checkResult{Updater: t.name, Installed: t.installed, Packages: []core.Package{}}
		r := &results[i]
		t.updater.AddListener(&updater.ListenerFuncs{
			Finish: func(pkgs []core.Package) { r.Packages = pkgs },
			Error:  func(err error) { r.Error = err.Error() },
		})
		t.updater.Check(ctx, true)
	}
	for _, t := range targets {
		t.updater.Wait()
	}
	return results
}

func failedChecks(results []checkResult) error {
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}
