// Package client holds URL construction shared by catalog sources.
package client

// URLBuilder constructs URLs for a catalog.
type URLBuilder interface {
	Catalog(device string) string
	Download(path string) string
}

// BaseURLs provides a default URLBuilder implementation.
type BaseURLs struct {
	CatalogFn  func(device string) string
	DownloadFn func(path string) string
}

func (b *BaseURLs) Catalog(device string) string {
	if b.CatalogFn != nil {
		return b.CatalogFn(device)
	}
	return ""
}

func (b *BaseURLs) Download(path string) string {
	if b.DownloadFn != nil {
		return b.DownloadFn(path)
	}
	return ""
}

// BuildURLs returns a map of all non-empty URLs for a device and a package
// path. Keys are "catalog" and "download".
func BuildURLs(urls URLBuilder, device, path string) map[string]string {
	result := make(map[string]string)
	if v := urls.Catalog(device); v != "" {
		result["catalog"] = v
	}
	if v := urls.Download(path); v != "" {
		result["download"] = v
	}
	return result
}
