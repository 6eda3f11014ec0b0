// Package goo provides a catalog source for the goo.im file listing API.
package goo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/sirupsen/logrus"
)

const (
	DefaultURL         = "https://api.goo.im"
	DefaultDownloadURL = "https://goo.im"
	kind               = "goo"

	devPath = "/files/devs/paranoidandroid/"
)

// ErrDeviceNotFound is the message reported when the listing has no files.
const ErrDeviceNotFound = "device not found on server"

var reservedWords = regexp.MustCompile(`\b(-signed|-modular|-full|-mini|-micro|-stock)\b`)

func init() {
	core.Register(kind, DefaultURL, func(baseURL string, opts ...core.SourceOption) core.Source {
		return New(baseURL, opts...)
	})
}

// Source queries the goo.im developer file listing. ROM sources look under
// roms/<device>, Google Apps sources use the device as a path. The response
// looks like
//
//	{"files": [{"path": "/devs/...zip", "md5": "...", "filesize": 123}]}
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
	download := s.cfg.DownloadURL
	if download == "" {
		download = DefaultDownloadURL
	}
	s.urls = &URLs{
		baseURL:     s.baseURL,
		downloadURL: strings.TrimSuffix(download, "/"),
		roms:        s.cfg.Family != core.KindGapps,
	}
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

	files, ok := resp.Objects("files")
	if !ok {
		s.err = ErrDeviceNotFound
		return nil, s.err
	}
	s.err = ""

	log := s.cfg.Logger.WithFields(logrus.Fields{"source": kind, "device": s.device})
	pkgs := make([]core.Package, 0, len(files))
	for _, f := range files {
		p, err := s.convert(f)
		if err != nil {
			log.WithError(err).Debug("Skipping catalog record")
			continue
		}
		pkgs = append(pkgs, p)
	}

	return core.Rank(core.NewerThanOrEqual(pkgs, s.baseline)), ""
}

func (s *Source) convert(f core.Object) (core.Package, error) {
	path := f.String("path")
	filename := path[strings.LastIndex(path, "/")+1:]
	fail := func(err error) (core.Package, error) {
		return core.Package{}, &core.RecordError{Source: kind, Filename: filename, Err: err}
	}

	if !strings.HasSuffix(path, ".zip") {
		return fail(errors.New("path is not a zip file"))
	}
	if !releaseNumber(core.LastBit(reservedWords.ReplaceAllString(strings.ReplaceAll(filename, ".zip", ""), ""))) {
		return fail(errors.New("filename does not end in a release number"))
	}

	family := core.KindROM
	if strings.Contains(filename, "pa_gapps") {
		family = core.KindGapps
	}

	p, err := core.NewPackage(family, s.device, core.SafeParsePackaging(filename), filename,
		f.Int64("filesize", 0), f.String("md5"), s.urls.Download(path))
	var rerr *core.RecordError
	if errors.As(err, &rerr) {
		rerr.Source = kind
	}
	return p, err
}

// releaseNumber accepts "20140101", "4.4" and a number with one trailing
// letter such as "20140101B".
func releaseNumber(bit string) bool {
	if core.IsNumeric(bit) || isFloat(bit) {
		return true
	}
	return bit != "" && isFloat(bit[:len(bit)-1])
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

type URLs struct {
	baseURL     string
	downloadURL string
	roms        bool
}

func (u *URLs) Catalog(device string) string {
	if u.roms {
		return fmt.Sprintf("%s%sroms/%s?ro_board=%s", u.baseURL, devPath, device, device)
	}
	return u.baseURL + devPath + device
}

// Download returns the absolute link for a listing path.
func (u *URLs) Download(path string) string {
	if path == "" {
		return ""
	}
	return u.downloadURL + path
}
