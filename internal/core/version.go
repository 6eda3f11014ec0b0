package core

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Version is a three-part version with ordered pre-release and build
// metadata identifiers. The zero value is 0.0.0. Versions are immutable; the
// identifier accessors return copies.
type Version struct {
	major, minor, patch int
	pre, build          []string
}

// V returns the version major.minor.patch without identifiers.
func V(major, minor, patch int) Version {
	return Version{major: major, minor: minor, patch: patch}
}

// NewVersion builds a version from its parts. It fails if any pre-release or
// build metadata identifier is empty.
func NewVersion(major, minor, patch int, preRelease, buildMetadata []string) (Version, error) {
	for _, id := range preRelease {
		if id == "" {
			return Version{}, &FormatError{Grammar: "strict", Reason: "empty pre-release identifier"}
		}
	}
	for _, id := range buildMetadata {
		if id == "" {
			return Version{}, &FormatError{Grammar: "strict", Reason: "empty build metadata identifier"}
		}
	}
	return Version{
		major: major,
		minor: minor,
		patch: patch,
		pre:   slices.Clone(preRelease),
		build: slices.Clone(buildMetadata),
	}, nil
}

func (v Version) Major() int { return v.major }
func (v Version) Minor() int { return v.minor }
func (v Version) Patch() int { return v.patch }

// PreRelease returns a copy of the pre-release identifiers.
func (v Version) PreRelease() []string { return slices.Clone(v.pre) }

// BuildMetadata returns a copy of the build metadata identifiers.
func (v Version) BuildMetadata() []string { return slices.Clone(v.build) }

// ParseStrict parses major.minor.patch[-pre][+build] where pre and build are
// dot-separated identifiers made of [0-9A-Za-z-]. The whole input must match.
func ParseStrict(s string) (Version, error) {
	sc := strictScanner{in: s}

	var nums [3]int
	for i := range nums {
		if i > 0 && !sc.accept('.') {
			return Version{}, sc.fail("expected '.' after version number")
		}
		n, err := sc.number()
		if err != nil {
			return Version{}, err
		}
		nums[i] = n
	}

	var pre, build []string
	if sc.accept('-') {
		ids, err := sc.identifiers("pre-release")
		if err != nil {
			return Version{}, err
		}
		pre = ids
	}
	if sc.accept('+') {
		ids, err := sc.identifiers("build metadata")
		if err != nil {
			return Version{}, err
		}
		build = ids
	}
	if sc.pos != len(s) {
		return Version{}, sc.fail("unexpected padding")
	}

	return NewVersion(nums[0], nums[1], nums[2], pre, build)
}

type strictScanner struct {
	in  string
	pos int
}

func (sc *strictScanner) fail(reason string) *FormatError {
	return &FormatError{Grammar: "strict", Input: sc.in, Reason: reason}
}

func (sc *strictScanner) accept(c byte) bool {
	if sc.pos < len(sc.in) && sc.in[sc.pos] == c {
		sc.pos++
		return true
	}
	return false
}

func (sc *strictScanner) number() (int, error) {
	start := sc.pos
	for sc.pos < len(sc.in) && isDigit(sc.in[sc.pos]) {
		sc.pos++
	}
	if start == sc.pos {
		return 0, sc.fail("expected a number")
	}
	n, err := strconv.Atoi(sc.in[start:sc.pos])
	if err != nil {
		return 0, sc.fail("number out of range")
	}
	return n, nil
}

func (sc *strictScanner) identifiers(what string) ([]string, error) {
	var ids []string
	for {
		start := sc.pos
		for sc.pos < len(sc.in) && isIdentChar(sc.in[sc.pos]) {
			sc.pos++
		}
		if start == sc.pos {
			return nil, sc.fail("empty " + what + " identifier")
		}
		ids = append(ids, sc.in[start:sc.pos])
		if !sc.accept('.') {
			return ids, nil
		}
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-'
}

// Compare returns -1, 0 or 1 depending on whether a is older than, equal to
// or newer than b.
//
// Pre-release identifiers are compared position by position. At a tied
// prefix the version that runs out of identifiers first is the older one, so
// 1.2.0-alpha is newer than 1.2.0. This is the reverse of semver precedence
// and matches how catalog filenames have always been ranked. Build metadata
// is ignored.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.major, b.major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.minor, b.minor); c != 0 {
		return c
	}
	if c := cmp.Compare(a.patch, b.patch); c != 0 {
		return c
	}

	n := max(len(a.pre), len(b.pre))
	for i := range n {
		if i >= len(a.pre) {
			return -1
		}
		if i >= len(b.pre) {
			return 1
		}
		if c := compareIdentifier(a.pre[i], b.pre[i]); c != 0 {
			return c
		}
	}
	return 0
}

// compareIdentifier orders numbers numerically and below any text, and text
// by byte order.
func compareIdentifier(a, b string) int {
	if a == b {
		return 0
	}
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(an, bn)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Compare is shorthand for Compare(v, other).
func (v Version) Compare(other Version) int {
	return Compare(v, other)
}

// IsNewerThanOrEqualTo reports whether v is not older than other.
func (v Version) IsNewerThanOrEqualTo(other Version) bool {
	return Compare(v, other) >= 0
}

// Equal reports whether both versions have the same precedence.
func (v Version) Equal(other Version) bool {
	return Compare(v, other) == 0
}

// String renders the version in the strict grammar.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.major, v.minor, v.patch)
	if len(v.pre) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.pre, "."))
	}
	if len(v.build) > 0 {
		b.WriteByte('+')
		b.WriteString(strings.Join(v.build, "."))
	}
	return b.String()
}

// DisplayString renders the version for people, e.g. "4.4.0 (3 2)".
func (v Version) DisplayString() string {
	out := fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
	if len(v.pre) > 0 {
		out += " (" + strings.Join(v.pre, " ") + ")"
	}
	if len(v.build) > 0 {
		out += " [" + strings.Join(v.build, " ") + "]"
	}
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the strict grammar.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseStrict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
