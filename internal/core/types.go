// Package core provides shared types and the catalog source system.
package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// GappsDevice is the device name given to Google Apps packages.
const GappsDevice = "-gapps-"

// Kind tells ROM packages and Google Apps packages apart.
type Kind string

const (
	KindROM   Kind = "rom"
	KindGapps Kind = "gapps"
)

// Flavor selects one of the mutually exclusive Google Apps packagings.
type Flavor string

const (
	FlavorMicro Flavor = "micro"
	FlavorMini  Flavor = "mini"
	FlavorStock Flavor = "stock"
	FlavorFull  Flavor = "full"
)

// Flavors lists every recognised flavor.
var Flavors = []Flavor{FlavorMicro, FlavorMini, FlavorStock, FlavorFull}

// ParseFlavor maps a g.prop or config value onto a Flavor. Anything
// unrecognised is FlavorFull.
func ParseFlavor(s string) Flavor {
	switch Flavor(strings.ToLower(strings.TrimSpace(s))) {
	case FlavorMicro:
		return FlavorMicro
	case FlavorMini:
		return FlavorMini
	case FlavorStock:
		return FlavorStock
	default:
		return FlavorFull
	}
}

// Marker is the filename fragment identifying packages of this flavor.
func (f Flavor) Marker() string {
	return "-" + string(f)
}

// Package describes one downloadable update image.
type Package struct {
	Device   string  `json:"device" yaml:"device"`
	Kind     Kind    `json:"kind" yaml:"kind"`
	Version  Version `json:"version" yaml:"version"`
	Filename string  `json:"filename" yaml:"filename"`
	Size     int64   `json:"size" yaml:"size"`
	MD5      string  `json:"md5" yaml:"md5"`
	URL      string  `json:"url" yaml:"url"`
}

// NewPackage validates and builds a Package. Gapps packages always carry
// GappsDevice as their device name. Validation failures are *RecordError
// values without a Source.
func NewPackage(kind Kind, device string, version Version, filename string, size int64, md5, downloadURL string) (Package, error) {
	if size < 0 {
		return Package{}, &RecordError{Filename: filename, Err: fmt.Errorf("negative size %d", size)}
	}
	if err := validateDownloadURL(downloadURL); err != nil {
		return Package{}, &RecordError{Filename: filename, Err: err}
	}
	if kind == KindGapps {
		device = GappsDevice
	}
	return Package{
		Device:   device,
		Kind:     kind,
		Version:  version,
		Filename: filename,
		Size:     size,
		MD5:      strings.ToLower(md5),
		URL:      downloadURL,
	}, nil
}

func validateDownloadURL(raw string) error {
	if raw == "" {
		return errors.New("missing download URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed download URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("download URL %q is not absolute", raw)
	}
	return nil
}

// IsGapps reports whether the package belongs to the Google Apps family.
func (p Package) IsGapps() bool {
	return p.Kind == KindGapps
}
