package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Source is the interface implemented by all catalog backends.
//
// BuildRequest and ParseResponse come in pairs: the source remembers the
// device and baseline of the last BuildRequest and uses them to interpret
// the next response.
type Source interface {
	// Kind returns the registered kind of this source (e.g., "pa", "goo").
	Kind() string

	// BuildRequest returns the URL to fetch for the device and baseline.
	BuildRequest(device string, baseline Version) string

	// ParseResponse converts a raw payload into packages not older than the
	// baseline. A non-empty message means the catalog answered with an
	// error or did not know the device. Malformed entries are skipped.
	ParseResponse(payload []byte) ([]Package, string)

	// Err returns the message of the last ParseResponse, if any.
	Err() string

	// URLs returns the URL builder for this source.
	URLs() URLBuilder
}

// Factory creates a source for a given base URL.
type Factory func(baseURL string, opts ...SourceOption) Source

var (
	factories = make(map[string]Factory)
	defaults  = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a source factory to the global registry.
// defaultURL is the default catalog URL for the kind.
func Register(kind string, defaultURL string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = factory
	defaults[kind] = defaultURL
}

// New creates a new source of the given kind.
// If baseURL is empty, the default catalog URL is used.
func New(kind string, baseURL string, opts ...SourceOption) (Source, error) {
	mu.RLock()
	factory, ok := factories[kind]
	defaultURL := defaults[kind]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if baseURL == "" {
		baseURL = defaultURL
	}

	return factory(baseURL, opts...), nil
}

// SupportedKinds returns all registered source kinds, sorted.
func SupportedKinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultURL returns the default catalog URL for a kind.
func DefaultURL(kind string) string {
	mu.RLock()
	defer mu.RUnlock()
	return defaults[kind]
}

// SourceConfig holds settings shared by every backend.
type SourceConfig struct {
	// Family is the package family the source is queried for.
	Family Kind
	// DownloadURL overrides the base of download links for catalogs that
	// only return paths.
	DownloadURL string
	// Logger receives skipped-record diagnostics.
	Logger logrus.FieldLogger
}

// SourceOption configures a source.
type SourceOption func(*SourceConfig)

// ForFamily sets the package family a source is queried for.
func ForFamily(k Kind) SourceOption {
	return func(c *SourceConfig) {
		c.Family = k
	}
}

// WithDownloadURL overrides the base of download links.
func WithDownloadURL(u string) SourceOption {
	return func(c *SourceConfig) {
		c.DownloadURL = u
	}
}

// WithSourceLogger sets the logger a source reports skipped records to.
func WithSourceLogger(l logrus.FieldLogger) SourceOption {
	return func(c *SourceConfig) {
		c.Logger = l
	}
}

// ApplySourceOptions returns the configuration described by opts.
func ApplySourceOptions(opts ...SourceOption) SourceConfig {
	c := SourceConfig{Family: KindROM, Logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}
