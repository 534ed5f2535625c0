package caqtipool

import "errors"

// ErrPoolConfig is returned by New when a Config violates one of its
// construction-time constraints (e.g. MaxSize < 1, MaxIdleSize out of
// range).
var ErrPoolConfig = errors.New("caqtipool: invalid pool configuration")

// ErrClosed is returned by Use/UseContext once Drain has converged; the
// pool no longer accepts new acquisitions.
var ErrClosed = errors.New("caqtipool: pool is closed")
