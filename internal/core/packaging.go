package core

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Phase identifiers produced by packaging names. A phase marker is followed
// by one of these and then the phase number.
const (
	phaseMarker = "phase"
	phaseAlpha  = "1"
	phaseBeta   = "2"
	phaseRC     = "3"
	phaseGold   = "4"
)

var log logrus.FieldLogger = logrus.StandardLogger()

// ParsePackaging parses a vendor packaging name such as
// "pa_mako-4.4.1-20140101-RC2-signed.zip".
//
// The grammar is
//
//	[pa_] device "-" major "." minorDigit [[.] patch] [trailing] [trailing] [-signed] [.zip]
//
// where each trailing segment is "-" followed by word characters. Trailing
// segments become pre-release identifiers: a release date splits into its
// eight digit date and a suffix, A/ALPHA, B/BETA and RC become phase
// markers, anything else is a gold release. Build metadata is always empty.
func ParsePackaging(s string) (Version, error) {
	_, v, err := SplitPackaging(s)
	return v, err
}

// SafeParsePackaging is ParsePackaging returning 0.0.0 instead of an error.
func SafeParsePackaging(s string) Version {
	v, err := ParsePackaging(s)
	if err != nil {
		log.WithError(err).Warn("Returning a safe version object for the packaging name")
		return V(0, 0, 0)
	}
	return v
}

// SplitPackaging is ParsePackaging that also returns the device part.
// The device is the longest prefix after which the rest still parses.
func SplitPackaging(s string) (string, Version, error) {
	candidates := []string{s}
	if rest, ok := strings.CutPrefix(s, "pa_"); ok {
		candidates = []string{rest, s}
	}

	for _, in := range candidates {
		for i := len(in) - 1; i > 0; i-- {
			if in[i] != '-' {
				continue
			}
			tail, ok := scanPackagingTail(in[i+1:])
			if !ok {
				continue
			}
			v, err := tail.version(s)
			if err != nil {
				return "", Version{}, err
			}
			return in[:i], v, nil
		}
	}

	return "", Version{}, &FormatError{Grammar: "packaging", Input: s, Reason: "specification unmatched"}
}

// packagingTail holds the raw pieces after "device-".
type packagingTail struct {
	major, minor, patch string
	trailing            [2]string
}

// scanPackagingTail matches major.minor[[.]patch][-t1][-t2][-signed][.zip]
// against the whole input.
func scanPackagingTail(in string) (packagingTail, bool) {
	var t packagingTail
	pos := 0

	digits := func() string {
		start := pos
		for pos < len(in) && isDigit(in[pos]) {
			pos++
		}
		return in[start:pos]
	}

	if t.major = digits(); t.major == "" {
		return t, false
	}
	if pos >= len(in) || in[pos] != '.' {
		return t, false
	}
	pos++
	if pos >= len(in) || !isDigit(in[pos]) {
		return t, false
	}
	t.minor = in[pos : pos+1]
	pos++

	switch {
	case pos < len(in) && isDigit(in[pos]):
		t.patch = digits()
	case pos+1 < len(in) && in[pos] == '.' && isDigit(in[pos+1]):
		pos++
		t.patch = digits()
	}

	for i := range t.trailing {
		if pos >= len(in) || in[pos] != '-' {
			break
		}
		end := pos + 1
		for end < len(in) && isWordChar(in[end]) {
			end++
		}
		if end == pos+1 {
			break
		}
		t.trailing[i] = in[pos+1 : end]
		pos = end
	}

	if strings.HasPrefix(in[pos:], "-signed") {
		pos += len("-signed")
	}
	if strings.HasPrefix(in[pos:], ".zip") {
		pos += len(".zip")
	}
	return t, pos == len(in)
}

func (t packagingTail) version(input string) (Version, error) {
	fail := func(reason string) error {
		return &FormatError{Grammar: "packaging", Input: input, Reason: reason}
	}

	major, err := strconv.Atoi(t.major)
	if err != nil {
		return Version{}, fail("unexpected non-number")
	}
	minor, err := strconv.Atoi(t.minor)
	if err != nil {
		return Version{}, fail("unexpected non-number")
	}
	patch := 0
	if t.patch != "" {
		if patch, err = strconv.Atoi(t.patch); err != nil {
			return Version{}, fail("unexpected non-number")
		}
	}

	first := parseTrailing(t.trailing[0])
	second := parseTrailing(t.trailing[1])
	if first[0] == phaseMarker {
		first, second = second, first
	}
	if len(first) < 2 || len(second) < 2 {
		return Version{}, fail("two unfilled trailing values")
	}

	var ids []string
	for _, id := range []string{
		first[len(first)-2], first[len(first)-1],
		second[len(second)-2], second[len(second)-1],
	} {
		if id != "" {
			ids = append(ids, id)
		}
	}

	return NewVersion(major, minor, patch, ids, nil)
}

// parseTrailing turns one trailing segment into identifier tokens. The last
// two tokens are the informative ones.
func parseTrailing(seg string) []string {
	seg = strings.TrimPrefix(seg, "-")
	switch {
	case seg == "":
		return []string{"", ""}
	case isDigit(seg[0]):
		return releaseDate(seg)
	case strings.HasPrefix(seg, "A"):
		return alphaPhase(seg)
	case strings.HasPrefix(seg, "B"):
		return betaPhase(seg)
	case strings.HasPrefix(seg, "RC"):
		return rcPhase(seg)
	default:
		return []string{phaseMarker, phaseGold, "0"}
	}
}

// releaseDate splits "20140101B" into "20140101" and "B".
func releaseDate(seg string) []string {
	if len(seg) < 8 {
		return []string{seg, ""}
	}
	return []string{seg[:8], seg[8:]}
}

// alphaPhase handles "A2" and "ALPHA2". There is no default number.
func alphaPhase(seg string) []string {
	if rest, ok := strings.CutPrefix(seg, "ALPHA"); ok {
		return []string{phaseMarker, phaseAlpha, rest}
	}
	return []string{phaseMarker, phaseAlpha, seg[1:]}
}

// betaPhase handles "B2" and "BETA2", defaulting the number to 0.
func betaPhase(seg string) []string {
	rest := seg[1:]
	if r, ok := strings.CutPrefix(seg, "BETA"); ok {
		rest = r
	}
	if rest == "" {
		rest = "0"
	}
	return []string{phaseMarker, phaseBeta, rest}
}

// rcPhase handles "RC2", defaulting the number to 0.
func rcPhase(seg string) []string {
	rest := seg[2:]
	if rest == "" {
		rest = "0"
	}
	return []string{phaseMarker, phaseRC, rest}
}

func isWordChar(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
