package core

import (
	"regexp"
	"slices"
	"strings"
)

var numberPattern = regexp.MustCompile(`^[-+]?\d*\.?\d+$`)

// FilterFlavor drops Google Apps packages whose filename does not carry the
// flavor marker. ROM packages are always kept. Gapps packages without any
// recognisable flavor are dropped too.
func FilterFlavor(pkgs []Package, flavor Flavor) []Package {
	out := make([]Package, 0, len(pkgs))
	marker := flavor.Marker()
	for _, p := range pkgs {
		if p.IsGapps() && !strings.Contains(p.Filename, marker) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Rank returns the packages newest first. Packages with equal versions keep
// the order they arrived in.
func Rank(pkgs []Package) []Package {
	out := slices.Clone(pkgs)
	slices.SortStableFunc(out, func(a, b Package) int {
		return Compare(b.Version, a.Version)
	})
	return out
}

// Newest returns the newest package, or false for an empty list.
func Newest(pkgs []Package) (Package, bool) {
	if len(pkgs) == 0 {
		return Package{}, false
	}
	return Rank(pkgs)[0], true
}

// NewerThanOrEqual keeps the packages not older than baseline.
func NewerThanOrEqual(pkgs []Package, baseline Version) []Package {
	out := make([]Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Version.IsNewerThanOrEqualTo(baseline) {
			out = append(out, p)
		}
	}
	return out
}

// LastBit returns the part of a filename after its last '-', with any
// ".zip" removed first.
func LastBit(filename string) string {
	name := strings.TrimRight(strings.ReplaceAll(filename, ".zip", ""), "-")
	return name[strings.LastIndex(name, "-")+1:]
}

// IsNumeric reports whether s is a plain signed decimal number such as
// "20140101", "4.4" or "-1".
func IsNumeric(s string) bool {
	return numberPattern.MatchString(s)
}
