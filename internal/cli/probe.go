package cli

import (
	"fmt"

	"github.com/pa-ota/catalog/fetch"
	"github.com/spf13/cobra"
)

type probeResult struct {
	Updater     string `json:"updater" yaml:"updater"`
	Filename    string `json:"filename" yaml:"filename"`
	URL         string `json:"url" yaml:"url"`
	CatalogSize int64  `json:"catalog_size" yaml:"catalog_size"`
	ServedSize  int64  `json:"served_size" yaml:"served_size"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Status      string `json:"status" yaml:"status"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

const (
	probeOK       = "ok"
	probeMismatch = "size mismatch"
	probeFailed   = "failed"
)

func newProbeCmd(opts *options) *cobra.Command {
	var newestOnly bool

	cmd := &cobra.Command{
		Use:   "probe [rom|gapps|all]",
		Short: "Check that update downloads are reachable",
		Long: `Checks for updates, then sends a HEAD request to each download link and
compares the served size with the size reported by the catalog.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: targetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}

			transport := opts.transport()
			targets, err := opts.targets(which, false, transport)
			if err != nil {
				return err
			}

			resolver := fetch.NewResolver(transport)
			var results []probeResult
			for _, r := range runChecks(cmd.Context(), targets) {
				pkgs := r.Packages
				if newestOnly && len(pkgs) > 1 {
					pkgs = pkgs[:1]
				}
				for _, info := range resolver.ResolveAll(cmd.Context(), pkgs) {
					results = append(results, toProbeResult(r.Updater, info))
				}
			}

			opts.log.WithField("breakers", transport.BreakerState()).Debug("Probe finished")

			if err := opts.printer(cmd).probeResults(results); err != nil {
				return err
			}
			return failedProbes(results)
		},
	}

	cmd.Flags().BoolVar(&newestOnly, "newest", false, "Only probe the newest package of each updater")
	return cmd
}

func toProbeResult(name string, info fetch.ArtifactInfo) probeResult {
	r := probeResult{
		Updater:     name,
		Filename:    info.Package.Filename,
		URL:         info.URL,
		CatalogSize: info.Package.Size,
		ServedSize:  info.Size,
		ContentType: info.ContentType,
		Status:      probeOK,
	}
	switch {
	case info.Err != nil:
		r.Status = probeFailed
		r.Error = info.Err.Error()
	case !info.SizeMatches():
		r.Status = probeMismatch
	}
	return r
}

func failedProbes(results []probeResult) error {
	bad := 0
	for _, r := range results {
		if r.Status != probeOK {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d downloads failed verification", bad, len(results))
	}
	return nil
}
