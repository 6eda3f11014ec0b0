package core

import (
	"github.com/pa-ota/catalog/client"
)

// Type aliases so backends only import core.
type (
	URLBuilder = client.URLBuilder
	BaseURLs   = client.BaseURLs
)

// BuildURLs is aliased so backends only import core.
var BuildURLs = client.BuildURLs
