package engine

import "errors"

// ErrFatal marks a mutation that could not be committed together with its
// audit entry. Nothing of the mutation is visible afterwards.
var ErrFatal = errors.New("engine: mutation not committed")
