package graph

import "errors"

// ErrMalformed marks logic data that cannot be compiled: unknown names,
// dangling vertex references, invalid requirements or inconsistent obstacle
// bookkeeping. It indicates broken data, not an unlucky seed.
var ErrMalformed = errors.New("malformed logic graph")
