package stats

import "errors"

// ErrInvalidArgument marks malformed caller input: a public key that is
// not hex, or a block specifier that does not parse. The RPC layer maps
// it to an invalid-params error rather than coercing the input.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnavailable marks a missing upstream: the chain-state source has no
// snapshot yet or the record store cannot be reached. It is scoped to the
// single request that hit it.
var ErrUnavailable = errors.New("upstream unavailable")
