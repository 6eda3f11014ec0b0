package cli

import (
	"fmt"
	"strings"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/spf13/cobra"
)

type parsedVersion struct {
	Input   string       `json:"input" yaml:"input"`
	Grammar string       `json:"grammar" yaml:"grammar"`
	Device  string       `json:"device,omitempty" yaml:"device,omitempty"`
	Version core.Version `json:"version" yaml:"version"`
	Display string       `json:"display" yaml:"display"`
}

type comparison struct {
	A        parsedVersion `json:"a" yaml:"a"`
	B        parsedVersion `json:"b" yaml:"b"`
	Result   int           `json:"result" yaml:"result"`
	Relation string        `json:"relation" yaml:"relation"`
}

func newVersionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Parse and compare version strings",
		Long: `Parses versions in any of the accepted notations:

  strict     4.4.1-3.2+build.5
  packaging  pa_mako-4.4.1-20140101-RC2-signed.zip
  purl       pkg:generic/mako@4.4.1-20140101`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "parse <version>...",
		Short: "Show how versions are understood",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]parsedVersion, 0, len(args))
			for _, arg := range args {
				p, err := parseAny(arg)
				if err != nil {
					return err
				}
				parsed = append(parsed, p)
			}
			return opts.printer(cmd).versions(parsed)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseAny(args[0])
			if err != nil {
				return err
			}
			b, err := parseAny(args[1])
			if err != nil {
				return err
			}
			result := core.Compare(a.Version, b.Version)
			return opts.printer(cmd).comparison(comparison{
				A:        a,
				B:        b,
				Result:   result,
				Relation: relation(result),
			})
		},
	})

	return cmd
}

// parseAny tries the purl, strict and packaging notations in turn.
func parseAny(s string) (parsedVersion, error) {
	if strings.HasPrefix(s, "pkg:") {
		purl, err := core.ParsePURL(s)
		if err != nil {
			return parsedVersion{}, err
		}
		v, err := purl.ParsedVersion()
		if err != nil {
			return parsedVersion{}, err
		}
		return parsedVersion{Input: s, Grammar: "purl", Device: purl.Device(), Version: v, Display: v.DisplayString()}, nil
	}

	if v, err := core.ParseStrict(s); err == nil {
		return parsedVersion{Input: s, Grammar: "strict", Version: v, Display: v.DisplayString()}, nil
	}

	device, v, err := core.SplitPackaging(s)
	if err != nil {
		return parsedVersion{}, fmt.Errorf("%q is neither a strict version nor a packaging name", s)
	}
	return parsedVersion{Input: s, Grammar: "packaging", Device: device, Version: v, Display: v.DisplayString()}, nil
}

func relation(result int) string {
	switch {
	case result > 0:
		return "newer"
	case result < 0:
		return "older"
	default:
		return "equal"
	}
}
