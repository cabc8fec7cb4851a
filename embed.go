// Package showsave carries the documentation embedded in the binary.
package showsave

import (
	_ "embed"
)

//go:embed docs/GUIDE.md
var guide string

// Guide returns the user guide shown by --guide.
func Guide() string {
	return guide
}
