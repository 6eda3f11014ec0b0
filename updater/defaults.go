package updater

import (
	"github.com/pa-ota/catalog/fetch"
	"github.com/pa-ota/catalog/internal/core"
)

// StaticBaseline is a BaselineProvider with fixed values.
type StaticBaseline struct {
	Device  string
	Version string
}

func (b StaticBaseline) Baseline() (string, string) {
	return b.Device, b.Version
}

// StaticSettings is a Settings with fixed values.
type StaticSettings struct {
	GappsFlavor core.Flavor
	Enabled     bool
}

func (s StaticSettings) Flavor() core.Flavor {
	return s.GappsFlavor
}

func (s StaticSettings) ChecksEnabled() bool {
	return s.Enabled
}

type nopNotifier struct{}

func (nopNotifier) NotifyPackagesAvailable([]core.Package) {}
func (nopNotifier) NotifyInteractiveError(string)          {}

func defaultTransport() Transport {
	return fetch.NewCircuitBreakerFetcher(fetch.NewFetcher())
}
