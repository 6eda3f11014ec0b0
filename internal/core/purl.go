package core

import (
	"fmt"
	"strings"

	"github.com/git-pkgs/purl"
)

// PURLType is the package URL type used for update packages.
const PURLType = "generic"

// PURL wraps purl.PURL with update-package helpers.
type PURL struct {
	*purl.PURL
}

// ParsePURL parses a Package URL string into its components.
func ParsePURL(purlStr string) (*PURL, error) {
	p, err := purl.Parse(purlStr)
	if err != nil {
		return nil, err
	}
	return &PURL{p}, nil
}

// Device returns the device a PURL refers to. Google Apps PURLs map onto
// GappsDevice.
func (p PURL) Device() string {
	if p.Name == "gapps" {
		return GappsDevice
	}
	return p.Name
}

// ParsedVersion parses the PURL version in the strict grammar.
// A PURL without a version yields 0.0.0.
func (p PURL) ParsedVersion() (Version, error) {
	if p.Version == "" {
		return V(0, 0, 0), nil
	}
	v, err := ParseStrict(p.Version)
	if err != nil {
		return Version{}, fmt.Errorf("purl %s: %w", p.Name, err)
	}
	return v, nil
}

// PURL returns a generic package URL for the package,
// e.g. "pkg:generic/mako@4.4.0-3.2?checksum=md5:abc".
func (p Package) PURL() string {
	name := strings.TrimSuffix(p.Filename, ".zip")
	if dev, _, err := SplitPackaging(p.Filename); err == nil {
		name = dev
	}
	if p.IsGapps() {
		name = "gapps"
	}
	var qualifiers map[string]string
	if p.MD5 != "" {
		qualifiers = map[string]string{"checksum": "md5:" + p.MD5}
	}
	return purl.New(PURLType, "", name, p.Version.String(), qualifiers).String()
}
