package rolluptype

import "errors"

// Error classification codes.
var (
	// ErrUnknownTag is returned by ParseStrict for input that matches none
	// of the known tags. FromString never returns it.
	ErrUnknownTag = errors.New("rolluptype: unknown tag")
)
