package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pa-ota/catalog/internal/core"
)

var ErrNoDownloadURL = errors.New("no download URL available")

// Header is the subset of Interface used to probe downloads.
type Header interface {
	Head(ctx context.Context, url string) (size int64, contentType string, err error)
}

// ArtifactInfo describes what a download link actually serves.
type ArtifactInfo struct {
	Package     core.Package
	URL         string
	Filename    string
	Size        int64 // -1 if unknown
	ContentType string
	Err         error
}

// SizeMatches reports whether the served size agrees with the catalog. An
// unknown size on either side counts as a match.
func (a ArtifactInfo) SizeMatches() bool {
	if a.Size < 0 || a.Package.Size <= 0 {
		return true
	}
	return a.Size == a.Package.Size
}

// Resolver checks package download links without downloading them.
type Resolver struct {
	header      Header
	concurrency int
}

// NewResolver creates a resolver probing through h.
func NewResolver(h Header) *Resolver {
	return &Resolver{header: h, concurrency: 4}
}

// Resolve probes the download link of a single package.
func (r *Resolver) Resolve(ctx context.Context, pkg core.Package) (*ArtifactInfo, error) {
	if pkg.URL == "" {
		return nil, ErrNoDownloadURL
	}

	size, contentType, err := r.header.Head(ctx, pkg.URL)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", pkg.Filename, err)
	}

	return &ArtifactInfo{
		Package:     pkg,
		URL:         pkg.URL,
		Filename:    filenameFromURL(pkg.URL),
		Size:        size,
		ContentType: contentType,
	}, nil
}

// ResolveAll probes every package concurrently. Results keep the order of
// pkgs; failed probes carry their error in ArtifactInfo.Err.
func (r *Resolver) ResolveAll(ctx context.Context, pkgs []core.Package) []ArtifactInfo {
	results := make([]ArtifactInfo, len(pkgs))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, pkg := range pkgs {
		wg.Add(1)
		go func(i int, pkg core.Package) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			info, err := r.Resolve(ctx, pkg)
			if err != nil {
				results[i] = ArtifactInfo{
					Package:  pkg,
					URL:      pkg.URL,
					Filename: filenameFromURL(pkg.URL),
					Size:     -1,
					Err:      err,
				}
				return
			}
			results[i] = *info
		}(i, pkg)
	}

	wg.Wait()
	return results
}

func filenameFromURL(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		url = url[:idx]
	}
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
