//go:build !linux && !darwin && !freebsd && !windows

package safefs

import "errors"

func availableBytes(string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
