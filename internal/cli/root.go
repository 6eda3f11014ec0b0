// Package cli implements the otacheck command line.
package cli

import (
	"github.com/pa-ota/catalog/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	output     string
	verbose    bool
	device     string
	modVersion string

	cfg    *config.Config
	format Format
	log    *logrus.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{log: logrus.StandardLogger()}

	rootCmd := &cobra.Command{
		Use:   "otacheck",
		Short: "Check update catalogs for newer ROM and Google Apps builds",
		Long: `otacheck asks update catalog servers whether builds newer than the
installed ROM or Google Apps package are available.

Catalogs are queried in the configured order and the next one is tried
when a catalog is unreachable, reports an error or has nothing newer.

Supported catalogs:
  - pa  (Paranoid Android update API)
  - goo (goo.im file listings)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				opts.log.SetLevel(logrus.DebugLevel)
			} else {
				opts.log.SetLevel(logrus.InfoLevel)
			}
			return opts.load(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.otacheck/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().StringVar(&opts.device, "device", "", "Device name, overrides the config")
	rootCmd.PersistentFlags().StringVar(&opts.modVersion, "modversion", "", "Installed ROM version, overrides the config")

	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newProbeCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))

	return rootCmd
}

func (o *options) load(cmd *cobra.Command) error {
	format, err := ParseFormat(o.output)
	if err != nil {
		return err
	}
	o.format = format

	var loadOpts []config.Option
	if o.configPath != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configPath))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Set(config.KeyDevice, o.device)
	}
	if flags.Changed("modversion") {
		cfg.Set(config.KeyModVersion, o.modVersion)
	}
	o.cfg = cfg

	o.log.WithField("settings", cfg.AllSettings()).Debug("Configuration loaded")
	return nil
}

func (o *options) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), o.format)
}
