package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BE9FD"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
)

type printer struct {
	w      io.Writer
	format Format
}

func newPrinter(w io.Writer, format Format) *printer {
	return &printer{w: w, format: format}
}

// encode writes v as JSON or YAML. It reports false for text output.
func (p *printer) encode(v any) (bool, error) {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return true, enc.Encode(v)
	default:
		return false, nil
	}
}

func (p *printer) checkResults(results []checkResult) error {
	views := make([]checkView, len(results))
	for i, r := range results {
		views[i] = r.view()
	}
	if done, err := p.encode(views); done {
		return err
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintln(p.w, headerStyle.Render(fmt.Sprintf("%s updates", r.Updater))+
			" "+mutedStyle.Render("(installed "+r.Installed+")"))

		switch {
		case r.Error != "":
			fmt.Fprintln(p.w, errorStyle.Render("Error: "+r.Error))
		case len(r.Packages) == 0:
			fmt.Fprintln(p.w, "No updates available")
		default:
			w := tabwriter.NewWriter(p.w, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "FILENAME\tVERSION\tSIZE\tMD5\tURL")
			for _, pkg := range r.Packages {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					pkg.Filename,
					pkg.Version.DisplayString(),
					humanize.Bytes(uint64(pkg.Size)),
					pkg.MD5,
					pkg.URL,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *printer) probeResults(results []probeResult) error {
	if done, err := p.encode(results); done {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(p.w, "No downloads to probe")
		return nil
	}

	fmt.Fprintln(p.w, headerStyle.Render("Download probes"))
	w := tabwriter.NewWriter(p.w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "UPDATER\tFILENAME\tSTATUS\tCATALOG\tSERVED\tTYPE")
	for _, r := range results {
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Updater,
			r.Filename,
			status,
			humanize.Bytes(uint64(max(r.CatalogSize, 0))),
			servedSize(r.ServedSize),
			r.ContentType,
		)
	}
	return w.Flush()
}

func servedSize(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(n))
}

func (p *printer) versions(parsed []parsedVersion) error {
	if done, err := p.encode(parsed); done {
		return err
	}

	w := tabwriter.NewWriter(p.w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "INPUT\tGRAMMAR\tDEVICE\tVERSION\tDISPLAY")
	for _, v := range parsed {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Input, v.Grammar, v.Device, v.Version, v.Display)
	}
	return w.Flush()
}

func (p *printer) comparison(c comparison) error {
	if done, err := p.encode(c); done {
		return err
	}

	if c.Result == 0 {
		_, err := fmt.Fprintf(p.w, "%s is equal to %s\n", c.A.Input, c.B.Input)
		return err
	}
	_, err := fmt.Fprintf(p.w, "%s is %s than %s\n", c.A.Input, c.Relation, c.B.Input)
	return err
}
