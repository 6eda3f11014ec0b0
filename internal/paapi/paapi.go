// Package paapi provides a catalog source for the Paranoid Android update API.
package paapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pa-ota/catalog/internal/core"
	"github.com/sirupsen/logrus"
)

const (
	DefaultURL = "http://api.paranoidandroid.co"
	kind       = "pa"
)

func init() {
	core.Register(kind, DefaultURL, func(baseURL string, opts ...core.SourceOption) core.Source {
		return New(baseURL, opts...)
	})
}

// Source queries <base>/updates/<device>. The response looks like
//
//	{"error": "", "updates": [{"name": "...", "size": "190 MB", "md5": "...", "url": "..."}]}
type Source struct {
	baseURL string
	cfg     core.SourceConfig
	urls    *URLs

	mu       sync.Mutex
	device   string
	baseline core.Version
	err      string
}

func New(baseURL string, opts ...core.SourceOption) *Source {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	s := &Source{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cfg:     core.ApplySourceOptions(opts...),
	}
	s.urls = &URLs{baseURL: s.baseURL}
	return s
}

func (s *Source) Kind() string {
	return kind
}

func (s *Source) URLs() core.URLBuilder {
	return s.urls
}

func (s *Source) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Source) BuildRequest(device string, baseline core.Version) string {
	s.mu.Lock()
	s.device = device
	s.baseline = baseline
	s.mu.Unlock()
	return s.urls.Catalog(device)
}

func (s *Source) ParseResponse(payload []byte) ([]core.Package, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := core.ParseObject(payload)
	if err != nil {
		s.err = fmt.Sprintf("malformed response: %v", err)
		return nil, s.err
	}

	if msg := resp.String("error"); msg != "" {
		s.err = msg
		return nil, s.err
	}
	s.err = ""

	updates, ok := resp.Objects("updates")
	if !ok {
		return nil, ""
	}

	log := s.cfg.Logger.WithFields(logrus.Fields{"source": kind, "device": s.device})
	pkgs := make([]core.Package, 0, len(updates))
	for _, u := range updates {
		p, err := s.convert(u)
		if err != nil {
			log.WithError(err).Debug("Skipping catalog record")
			continue
		}
		pkgs = append(pkgs, p)
	}

	return core.Rank(core.NewerThanOrEqual(pkgs, s.baseline)), ""
}

func (s *Source) convert(u core.Object) (core.Package, error) {
	filename := u.String("name")
	fail := func(err error) (core.Package, error) {
		return core.Package{}, &core.RecordError{Source: kind, Filename: filename, Err: err}
	}

	if !core.IsNumeric(core.LastBit(filename)) {
		return fail(errors.New("filename does not end in a release number"))
	}

	var size int64
	if raw := u.String("size"); raw != "" {
		n, err := humanize.ParseBytes(raw)
		if err != nil {
			return fail(fmt.Errorf("size %q: %w", raw, err))
		}
		size = int64(n)
	}

	family := core.KindROM
	if strings.Contains(strings.ToLower(filename), "gapps") {
		family = core.KindGapps
	}

	p, err := core.NewPackage(family, s.device, core.SafeParsePackaging(filename), filename, size, u.String("md5"), u.String("url"))
	var rerr *core.RecordError
	if errors.As(err, &rerr) {
		rerr.Source = kind
	}
	return p, err
}

type URLs struct {
	baseURL string
}

func (u *URLs) Catalog(device string) string {
	return fmt.Sprintf("%s/updates/%s", u.baseURL, device)
}

// Download returns "": the API hands out absolute download links.
func (u *URLs) Download(path string) string {
	return ""
}
