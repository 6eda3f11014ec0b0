// Package baseline describes the installed ROM and Google Apps builds that
// update checks compare against.
package baseline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/spf13/viper"
)

// ROM is the installed ROM build.
type ROM struct {
	Device     string
	ModVersion string
}

// NewROM returns the ROM baseline for device. The device name is
// lowercased as catalogs use lowercase board names.
func NewROM(device, modVersion string) ROM {
	return ROM{
		Device:     strings.ToLower(strings.TrimSpace(device)),
		ModVersion: strings.TrimSpace(modVersion),
	}
}

// VersionString is the packaging name of the installed build, e.g.
// "mako-4.4-20140101".
func (r ROM) VersionString() string {
	return r.Device + "-" + r.ModVersion
}

func (r ROM) Version() core.Version {
	return core.SafeParsePackaging(r.VersionString())
}

// Baseline implements updater.BaselineProvider.
func (r ROM) Baseline() (device, version string) {
	return r.Device, r.VersionString()
}

// Display is the human readable description of the installed ROM.
func (r ROM) Display() string {
	return fmt.Sprintf("%s %s", r.Device, r.Version().DisplayString())
}

// Props holds the keys of an installed Google Apps g.prop file.
type Props struct {
	Type    string
	Version string
}

const (
	propType         = "ro.addon.pa_type"
	propPAVersion    = "ro.addon.pa_version"
	propAddonVersion = "ro.addon.version"
)

// ReadProps reads a g.prop file. A missing file yields empty Props, as
// devices without Google Apps have none.
func ReadProps(path string) (Props, error) {
	//nolint:gosec // G304: reads the configured g.prop file
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Props{}, nil
	}
	if err != nil {
		return Props{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	props, err := ParseProps(f)
	if err != nil {
		return Props{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return props, nil
}

// ParseProps parses g.prop content, one key=value pair per line.
func ParseProps(r io.Reader) (Props, error) {
	v := viper.New()
	v.SetConfigType("dotenv")
	if err := v.ReadConfig(r); err != nil {
		return Props{}, err
	}

	full := v.GetString(propPAVersion)
	if full == "" {
		full = v.GetString(propAddonVersion)
	}
	return Props{
		Type:    v.GetString(propType),
		Version: releaseOf(full),
	}, nil
}

// releaseOf picks the first dash separated part of a g.prop version that
// starts with a digit, "0" if there is none.
func releaseOf(full string) string {
	for _, part := range strings.Split(full, "-") {
		if part != "" && part[0] >= '0' && part[0] <= '9' {
			return part
		}
	}
	return "0"
}

// Flavor is the flavor of the installed package, FlavorFull when unknown.
func (p Props) Flavor() core.Flavor {
	return core.ParseFlavor(p.Type)
}

// PadPlatform turns an Android release such as "4.4" into the three digit
// platform code "440".
func PadPlatform(release string) string {
	platform := strings.ReplaceAll(strings.TrimSpace(release), ".", "")
	for len(platform) < 3 {
		platform += "0"
	}
	return platform
}

// Gapps is the installed Google Apps build.
type Gapps struct {
	ROM      core.Version
	Platform string
	Props    Props
	Flavor   core.Flavor
}

// NewGapps returns the Google Apps baseline for a ROM version string such
// as "mako-4.4-20140101" and an Android release such as "4.4".
func NewGapps(romVersion, release string, props Props, flavor core.Flavor) Gapps {
	return Gapps{
		ROM:      core.SafeParsePackaging(romVersion),
		Platform: PadPlatform(release),
		Props:    props,
		Flavor:   flavor,
	}
}

// VersionString is the packaging name of the installed package, e.g.
// "gapps-4.40-20140101".
func (g Gapps) VersionString() string {
	release := g.Props.Version
	if release == "" {
		release = "0"
	}
	major, minor := "0", "0"
	if len(g.Platform) > 0 {
		major = g.Platform[:1]
	}
	if len(g.Platform) > 1 {
		minor = g.Platform[1:]
	}
	return "gapps-" + major + "." + minor + "-" + release
}

func (g Gapps) Version() core.Version {
	return core.SafeParsePackaging(g.VersionString())
}

// Device is the catalog path listing packages of the selected flavor for
// the installed Android release, e.g.
// "GApps/Android%204.4/Mini-Modular%20GApps".
func (g Gapps) Device() string {
	return "GApps/Android%20" + strconv.Itoa(g.ROM.Major()) + "." + strconv.Itoa(g.ROM.Minor()) +
		"/" + FlavorDir(g.Flavor)
}

// Baseline implements updater.BaselineProvider.
func (g Gapps) Baseline() (device, version string) {
	return g.Device(), g.VersionString()
}

// Display is the human readable description of the installed package.
func (g Gapps) Display() string {
	return strings.TrimSpace(g.Props.Type + " " + g.Version().DisplayString())
}

// FlavorDir is the catalog directory holding packages of a flavor.
func FlavorDir(f core.Flavor) string {
	switch f {
	case core.FlavorMicro:
		return "Micro-Modular%20GApps"
	case core.FlavorMini:
		return "Mini-Modular%20GApps"
	case core.FlavorStock:
		return "Google%20Stock%20GApps"
	default:
		return "Full-Modular%20GApps"
	}
}
