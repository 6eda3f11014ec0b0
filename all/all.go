// Package all imports all supported catalog source implementations.
//
// Import this package for its side effects to register all kinds:
//
//	import (
//		"github.com/pa-ota/catalog"
//		_ "github.com/pa-ota/catalog/all"
//	)
//
//	// Now all kinds are available
//	kinds := catalog.SupportedKinds()
//	// ["goo", "pa"]
package all

import (
	_ "github.com/pa-ota/catalog/internal/goo"
	_ "github.com/pa-ota/catalog/internal/paapi"
)
