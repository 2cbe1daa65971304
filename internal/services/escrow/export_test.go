// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package escrow

import "io"

// SetRandReader replaces the entropy source and returns a restore func.
func SetRandReader(r io.Reader) func() {
	old := randReader
	randReader = r
	return func() { randReader = old }
}
