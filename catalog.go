// Package catalog resolves over-the-air updates from update catalog servers.
//
// The package parses the two version notations used by update packages, a
// strict major.minor.patch form and vendor packaging filenames such as
// "pa_mako-4.4.1-20140101-RC2-signed.zip", and queries catalog sources in
// priority order until one of them returns packages newer than the
// installed build.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/pa-ota/catalog"
//		_ "github.com/pa-ota/catalog/all"
//	)
//
//	pa, _ := catalog.New("pa", "")
//	goo, _ := catalog.New("goo", "")
//	u, err := catalog.NewUpdater([]catalog.Source{pa, goo},
//		catalog.WithBaseline(catalog.StaticBaseline{Device: "mako", Version: "mako-4.4-20140101"}))
//	if err != nil {
//		log.Fatal(err)
//	}
//	u.Check(context.Background(), true)
//	u.Wait()
//	for _, p := range u.LastUpdates() {
//		fmt.Println(p.Filename, p.URL)
//	}
//
// To automatically import all supported catalog kinds, use the all subpackage.
package catalog

import (
	"github.com/pa-ota/catalog/client"
	"github.com/pa-ota/catalog/internal/core"
	"github.com/pa-ota/catalog/updater"
)

// Re-export types from internal/core
type (
	// Source is the interface implemented by all catalog backends.
	Source = core.Source

	// SourceOption configures a Source.
	SourceOption = core.SourceOption

	// Package describes one downloadable update image.
	Package = core.Package

	// Version is a comparable three-part version with identifiers.
	Version = core.Version

	// Kind tells ROM packages and Google Apps packages apart.
	Kind = core.Kind

	// Flavor selects a Google Apps packaging.
	Flavor = core.Flavor

	// PURL represents a parsed Package URL.
	PURL = core.PURL
)

// Re-export types from client
type (
	// URLBuilder constructs URLs for a catalog.
	URLBuilder = client.URLBuilder
)

// Re-export types from updater
type (
	// Updater drives checks against an ordered list of sources.
	Updater = updater.Updater

	// UpdaterOption configures an Updater.
	UpdaterOption = updater.Option

	// Listener observes the lifecycle of checks.
	Listener = updater.Listener

	// ListenerFuncs adapts plain functions to Listener.
	ListenerFuncs = updater.ListenerFuncs

	// StaticBaseline is a baseline provider with fixed values.
	StaticBaseline = updater.StaticBaseline

	// StaticSettings is a settings provider with fixed values.
	StaticSettings = updater.StaticSettings
)

// Re-export constants
const (
	KindROM   = core.KindROM
	KindGapps = core.KindGapps

	FlavorMicro = core.FlavorMicro
	FlavorMini  = core.FlavorMini
	FlavorStock = core.FlavorStock
	FlavorFull  = core.FlavorFull

	GappsDevice = core.GappsDevice
)

// Re-export errors
var (
	ErrUnknownKind = core.ErrUnknownKind
	ErrNoSources   = updater.ErrNoSources
)

// Error types
type (
	FormatError    = core.FormatError
	RecordError    = core.RecordError
	SourceError    = core.SourceError
	TransportError = core.TransportError
)

// New creates a new catalog source of the given kind.
// If baseURL is empty, the default catalog URL is used.
//
// Supported kinds: "pa", "goo"
func New(kind string, baseURL string, opts ...SourceOption) (Source, error) {
	return core.New(kind, baseURL, opts...)
}

// SupportedKinds returns all registered source kinds.
// Note: kinds must be imported to be registered.
func SupportedKinds() []string {
	return core.SupportedKinds()
}

// DefaultURL returns the default catalog URL for a kind.
func DefaultURL(kind string) string {
	return core.DefaultURL(kind)
}

// BuildURLs returns a map of all non-empty URLs for a device and a package
// path. Keys are "catalog" and "download".
func BuildURLs(urls URLBuilder, device, path string) map[string]string {
	return client.BuildURLs(urls, device, path)
}

// Source options.
var (
	ForFamily        = core.ForFamily
	WithDownloadURL  = core.WithDownloadURL
	WithSourceLogger = core.WithSourceLogger
)

// NewUpdater creates an Updater querying sources in the given order.
func NewUpdater(sources []Source, opts ...UpdaterOption) (*Updater, error) {
	return updater.New(sources, opts...)
}

// Updater options.
var (
	WithName        = updater.WithName
	WithTransport   = updater.WithTransport
	WithBaseline    = updater.WithBaseline
	WithSettings    = updater.WithSettings
	WithNotifier    = updater.WithNotifier
	WithDispatcher  = updater.WithDispatcher
	WithLogger      = updater.WithLogger
	WithScheduled   = updater.WithScheduled
	WithErrorPrefix = updater.WithErrorPrefix
)

// V returns the version major.minor.patch without identifiers.
func V(major, minor, patch int) Version {
	return core.V(major, minor, patch)
}

// NewVersion builds a version from its parts.
func NewVersion(major, minor, patch int, preRelease, buildMetadata []string) (Version, error) {
	return core.NewVersion(major, minor, patch, preRelease, buildMetadata)
}

// ParseStrict parses a major.minor.patch[-pre][+build] version.
func ParseStrict(s string) (Version, error) {
	return core.ParseStrict(s)
}

// ParsePackaging parses a vendor packaging name.
func ParsePackaging(s string) (Version, error) {
	return core.ParsePackaging(s)
}

// SafeParsePackaging parses a vendor packaging name, returning 0.0.0 when
// it does not match.
func SafeParsePackaging(s string) Version {
	return core.SafeParsePackaging(s)
}

// Compare returns -1, 0 or 1 depending on whether a is older than, equal to
// or newer than b.
func Compare(a, b Version) int {
	return core.Compare(a, b)
}

// ParsePURL parses a Package URL string into its components.
func ParsePURL(purlStr string) (*PURL, error) {
	return core.ParsePURL(purlStr)
}

// FilterFlavor drops Google Apps packages of other flavors.
func FilterFlavor(pkgs []Package, flavor Flavor) []Package {
	return core.FilterFlavor(pkgs, flavor)
}

// Rank returns the packages newest first, keeping the order of equal
// versions.
func Rank(pkgs []Package) []Package {
	return core.Rank(pkgs)
}
