package cli

import (
	"errors"
	"fmt"
	"slices"

	_ "github.com/pa-ota/catalog/all"
	"github.com/pa-ota/catalog/fetch"
	"github.com/pa-ota/catalog/internal/baseline"
	"github.com/pa-ota/catalog/internal/config"
	"github.com/pa-ota/catalog/internal/core"
	"github.com/pa-ota/catalog/internal/notify"
	"github.com/pa-ota/catalog/updater"
)

var errNoDevice = errors.New("no device configured (set device in the config file, OTA_DEVICE or --device)")

// target is one updater together with what it compares against.
type target struct {
	name      string
	installed string
	updater   *updater.Updater
}

var targetNames = []string{"rom", "gapps", "all"}

func (o *options) transport() *fetch.CircuitBreakerFetcher {
	return fetch.NewCircuitBreakerFetcher(fetch.NewFetcher(
		fetch.WithTimeout(o.cfg.Duration(config.KeyHTTPTimeout)),
		fetch.WithMaxRetries(o.cfg.Int(config.KeyHTTPRetries)),
		fetch.WithUserAgent(o.cfg.String(config.KeyHTTPUserAgent)),
	))
}

// targets builds the updaters selected by which ("rom", "gapps" or "all").
func (o *options) targets(which string, scheduled bool, transport updater.Transport) ([]target, error) {
	rom := baseline.NewROM(o.cfg.String(config.KeyDevice), o.cfg.String(config.KeyModVersion))
	if rom.Device == "" {
		return nil, errNoDevice
	}

	props, err := baseline.ReadProps(o.cfg.String(config.KeyGappsPropFile))
	if err != nil {
		o.log.WithError(err).Warn("Ignoring unreadable g.prop")
	}
	if v := o.cfg.String(config.KeyGappsVersion); v != "" {
		props.Version = v
	}
	o.cfg.SetDefaultFlavor(props.Flavor())

	common := []updater.Option{
		updater.WithTransport(transport),
		updater.WithSettings(o.cfg),
		updater.WithNotifier(notify.New(o.log)),
		updater.WithLogger(o.log),
		updater.WithScheduled(scheduled),
	}

	var out []target
	if which == "rom" || which == "all" {
		sources, err := o.sources(o.cfg.Strings(config.KeySourcesROM), core.KindROM)
		if err != nil {
			return nil, err
		}
		u, err := updater.New(sources, slices.Concat(common, []updater.Option{
			updater.WithName("rom"),
			updater.WithBaseline(rom),
			updater.WithErrorPrefix(o.cfg.String(config.KeyErrorROM)),
		})...)
		if err != nil {
			return nil, fmt.Errorf("rom updater: %w", err)
		}
		out = append(out, target{name: "rom", installed: rom.Display(), updater: u})
	}

	if which == "gapps" || which == "all" {
		platform := o.cfg.String(config.KeyGappsPlatform)
		if platform == "" {
			v := rom.Version()
			platform = fmt.Sprintf("%d.%d", v.Major(), v.Minor())
		}
		gapps := baseline.NewGapps(rom.VersionString(), platform, props, o.cfg.Flavor())

		sources, err := o.sources(o.cfg.Strings(config.KeySourcesGapps), core.KindGapps)
		if err != nil {
			return nil, err
		}
		u, err := updater.New(sources, slices.Concat(common, []updater.Option{
			updater.WithName("gapps"),
			updater.WithBaseline(gapps),
			updater.WithErrorPrefix(o.cfg.String(config.KeyErrorGapps)),
		})...)
		if err != nil {
			return nil, fmt.Errorf("gapps updater: %w", err)
		}
		out = append(out, target{name: "gapps", installed: gapps.Display(), updater: u})
	}

	return out, nil
}

func (o *options) sources(kinds []string, family core.Kind) ([]core.Source, error) {
	sources := make([]core.Source, 0, len(kinds))
	for _, kind := range kinds {
		src, err := core.New(kind, o.cfg.SourceURL(kind),
			core.ForFamily(family),
			core.WithDownloadURL(o.cfg.String(kind+".download-url")),
			core.WithSourceLogger(o.log),
		)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
