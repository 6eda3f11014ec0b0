package core

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func mustStrict(t testing.TB, s string) Version {
	t.Helper()
	v, err := ParseStrict(s)
	if err != nil {
		t.Fatalf("ParseStrict(%q) error = %v", s, err)
	}
	return v
}

func TestParseStrict(t *testing.T) {
	tests := []struct {
		input     string
		major     int
		minor     int
		patch     int
		pre       []string
		build     []string
		wantError bool
	}{
		{"0.0.0", 0, 0, 0, nil, nil, false},
		{"1.2.3", 1, 2, 3, nil, nil, false},
		{"10.20.30", 10, 20, 30, nil, nil, false},
		{"1.2.3-alpha", 1, 2, 3, []string{"alpha"}, nil, false},
		{"1.2.3-alpha.1", 1, 2, 3, []string{"alpha", "1"}, nil, false},
		{"1.2.3-x-y.7", 1, 2, 3, []string{"x-y", "7"}, nil, false},
		{"1.2.3+build.5", 1, 2, 3, nil, []string{"build", "5"}, false},
		{"1.2.3-rc.1+exp.sha", 1, 2, 3, []string{"rc", "1"}, []string{"exp", "sha"}, false},

		{"", 0, 0, 0, nil, nil, true},
		{"1.2", 0, 0, 0, nil, nil, true},
		{"1.2.3.4", 0, 0, 0, nil, nil, true},
		{"a.b.c", 0, 0, 0, nil, nil, true},
		{" 1.2.3", 0, 0, 0, nil, nil, true},
		{"1.2.3 ", 0, 0, 0, nil, nil, true},
		{"1.2.3-", 0, 0, 0, nil, nil, true},
		{"1.2.3+", 0, 0, 0, nil, nil, true},
		{"1.2.3-a..b", 0, 0, 0, nil, nil, true},
		{"1.2.3-a_b", 0, 0, 0, nil, nil, true},
		{"1.2.3+b+c", 0, 0, 0, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseStrict(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseStrict(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if tt.wantError {
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Errorf("expected *FormatError, got %T", err)
				}
				return
			}

			if v.Major() != tt.major || v.Minor() != tt.minor || v.Patch() != tt.patch {
				t.Errorf("got %d.%d.%d, want %d.%d.%d", v.Major(), v.Minor(), v.Patch(), tt.major, tt.minor, tt.patch)
			}
			if !slices.Equal(v.PreRelease(), tt.pre) {
				t.Errorf("PreRelease() = %v, want %v", v.PreRelease(), tt.pre)
			}
			if !slices.Equal(v.BuildMetadata(), tt.build) {
				t.Errorf("BuildMetadata() = %v, want %v", v.BuildMetadata(), tt.build)
			}
		})
	}
}

func TestParseStrict_RoundTrip(t *testing.T) {
	inputs := []string{
		"0.0.0",
		"1.2.3",
		"4.4.0-3.2",
		"4.4.1-20140101.B",
		"1.0.0-alpha-1.x.7+build.11",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			v := mustStrict(t, in)
			if v.String() != in {
				t.Errorf("String() = %q, want %q", v.String(), in)
			}
			again := mustStrict(t, v.String())
			if !again.Equal(v) {
				t.Errorf("re-parsed %s is not equal to %s", again, v)
			}
			if !slices.Equal(again.PreRelease(), v.PreRelease()) {
				t.Errorf("pre-release changed: %v != %v", again.PreRelease(), v.PreRelease())
			}
		})
	}
}

func TestNewVersion_EmptyIdentifier(t *testing.T) {
	if _, err := NewVersion(1, 0, 0, []string{"a", ""}, nil); err == nil {
		t.Error("expected error for empty pre-release identifier")
	}
	if _, err := NewVersion(1, 0, 0, nil, []string{""}); err == nil {
		t.Error("expected error for empty build metadata identifier")
	}
}

func TestVersion_Immutable(t *testing.T) {
	pre := []string{"3", "2"}
	v, err := NewVersion(4, 4, 0, pre, nil)
	if err != nil {
		t.Fatal(err)
	}

	pre[0] = "9"
	got := v.PreRelease()
	got[1] = "9"

	if !slices.Equal(v.PreRelease(), []string{"3", "2"}) {
		t.Errorf("PreRelease() = %v, want [3 2]", v.PreRelease())
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"1.3.0", "1.2.9", 1},
		{"2.0.0", "1.99.99", 1},

		// A version with a pre-release identifier at a tied position is newer.
		{"1.2.0-alpha", "1.2.0", 1},
		{"1.2.0", "1.2.0-alpha", -1},
		{"4.4.0-3", "4.4.0-3.2", -1},

		{"1.2.0-2", "1.2.0-10", -1},
		{"1.2.0-1", "1.2.0-alpha", -1},
		{"1.2.0-alpha", "1.2.0-1", 1},
		{"1.2.0-alpha", "1.2.0-beta", -1},
		{"1.2.0-01", "1.2.0-1", 0},

		{"1.2.0+b1", "1.2.0+b2", 0},
		{"1.2.0-rc+b1", "1.2.0-rc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			a, b := mustStrict(t, tt.a), mustStrict(t, tt.b)
			if got := Compare(a, b); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := a.IsNewerThanOrEqualTo(b); got != (tt.want >= 0) {
				t.Errorf("IsNewerThanOrEqualTo = %v, want %v", got, tt.want >= 0)
			}
		})
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	inputs := []string{
		"0.0.0", "1.0.0", "1.0.1", "1.1.0", "2.0.0",
		"1.0.0-1", "1.0.0-2", "1.0.0-10", "1.0.0-a", "1.0.0-b",
		"1.0.0-1.a", "1.0.0-a.1", "1.0.0-a.b", "1.0.0-01",
		"4.4.0-3.2", "4.4.0-4.0", "4.4.1-20140101.B", "4.4.1-20140101.2.1",
		"1.0.0+meta",
	}
	versions := make([]Version, len(inputs))
	for i, in := range inputs {
		versions[i] = mustStrict(t, in)
	}

	for _, a := range versions {
		if Compare(a, a) != 0 {
			t.Errorf("Compare(%s, %s) != 0", a, a)
		}
		for _, b := range versions {
			ab, ba := Compare(a, b), Compare(b, a)
			if ab != -ba {
				t.Errorf("antisymmetry: Compare(%s, %s) = %d, Compare(%s, %s) = %d", a, b, ab, b, a, ba)
			}
			if a.IsNewerThanOrEqualTo(b) != (ab >= 0) {
				t.Errorf("IsNewerThanOrEqualTo(%s, %s) inconsistent with Compare", a, b)
			}
			for _, c := range versions {
				if ab <= 0 && Compare(b, c) <= 0 && Compare(a, c) > 0 {
					t.Errorf("transitivity: %s <= %s <= %s but %s > %s", a, b, c, a, c)
				}
			}
		}
	}
}

func TestVersion_DisplayString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4.4.0", "4.4.0"},
		{"4.4.0-3.2", "4.4.0 (3 2)"},
		{"4.4.0-3.2+b", "4.4.0 (3 2) [b]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := mustStrict(t, tt.input).DisplayString(); got != tt.want {
				t.Errorf("DisplayString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersion_JSON(t *testing.T) {
	v := mustStrict(t, "4.4.1-20140101.B")

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"4.4.1-20140101.B"` {
		t.Errorf("Marshal = %s", data)
	}

	var got Version
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(v) {
		t.Errorf("Unmarshal = %s, want %s", got, v)
	}

	if err := json.Unmarshal([]byte(`"not a version"`), &got); err == nil {
		t.Error("expected error for malformed version")
	}
}
