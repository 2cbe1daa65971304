// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package claim

import "io"

// SetRandReader swaps the token entropy source and returns a restore func.
func SetRandReader(r io.Reader) func() {
	prev := randReader
	randReader = r
	return func() { randReader = prev }
}
