package caqtipool

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envMaxSize = "CAQTI_POOL_MAX_SIZE"

const (
	defaultMaxSize     = 8
	defaultMaxUseCount = 100
)

// Config configures a Pool at construction time. All fields are
// optional; unset fields receive the defaults documented on each field.
// A Config is immutable once passed to New — there is no API for
// reconfiguring a running Pool.
type Config struct {
	// MaxSize bounds the number of resources the pool is accountable
	// for at once (idle + in-use + being-created). Must be >= 1 if
	// set. Defaults to CAQTI_POOL_MAX_SIZE if that parses as a
	// positive integer, else 8.
	MaxSize int

	// MaxIdleSize bounds how many resources may sit idle at once; a
	// release that would exceed it destroys the resource instead of
	// repooling it. Must be in [0, MaxSize]. Defaults to MaxSize when
	// nil. A pointer, not a plain int, because 0 is a meaningful value
	// here (never repool) and must stay distinguishable from "unset".
	MaxIdleSize *int

	// MaxUseCount, if set, destroys a resource once it has completed
	// this many checkouts rather than repooling it. Must be > 0 if
	// set. Defaults to 100.
	MaxUseCount int

	// MaxIdleAge, if set, destroys an idle resource once it has sat
	// unused for this long. Unset (zero) disables idle-age expiry.
	MaxIdleAge time.Duration
}

// IdleSize is a convenience helper for populating Config.MaxIdleSize,
// whose pointer type makes an explicit 0 (never repool) distinguishable
// from an unset field (defaults to MaxSize).
func IdleSize(n int) *int { return &n }

type resolvedConfig struct {
	maxSize     int
	maxIdleSize int
	maxUseCount int
	maxIdleAge  time.Duration // 0 means disabled
}

func resolveConfig(cfg Config) (resolvedConfig, error) {
	rc := resolvedConfig{
		maxSize:     cfg.MaxSize,
		maxUseCount: cfg.MaxUseCount,
		maxIdleAge:  cfg.MaxIdleAge,
	}

	if rc.maxSize == 0 {
		rc.maxSize = defaultMaxSizeFromEnv()
	}
	if rc.maxSize < 1 {
		return resolvedConfig{}, fmt.Errorf("%w: MaxSize must be >= 1, got %d", ErrPoolConfig, rc.maxSize)
	}

	if cfg.MaxIdleSize == nil {
		rc.maxIdleSize = rc.maxSize
	} else {
		rc.maxIdleSize = *cfg.MaxIdleSize
	}
	if rc.maxIdleSize < 0 || rc.maxIdleSize > rc.maxSize {
		return resolvedConfig{}, fmt.Errorf("%w: MaxIdleSize (%d) must be in [0, MaxSize=%d]", ErrPoolConfig, rc.maxIdleSize, rc.maxSize)
	}

	if cfg.MaxUseCount == 0 {
		rc.maxUseCount = defaultMaxUseCount
	}
	if rc.maxUseCount < 0 {
		return resolvedConfig{}, fmt.Errorf("%w: MaxUseCount must be > 0 if set, got %d", ErrPoolConfig, rc.maxUseCount)
	}

	if rc.maxIdleAge < 0 {
		return resolvedConfig{}, fmt.Errorf("%w: MaxIdleAge must not be negative", ErrPoolConfig)
	}

	return rc, nil
}

// defaultMaxSizeFromEnv reads CAQTI_POOL_MAX_SIZE: an absent value falls
// back to the built-in default; a malformed value logs a warning and also
// falls back, rather than failing construction.
func defaultMaxSizeFromEnv() int {
	s := os.Getenv(envMaxSize)
	if s == "" {
		return defaultMaxSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		logger.Printf("warning: %s=%q is not a positive integer, using default %d", envMaxSize, s, defaultMaxSize)
		return defaultMaxSize
	}
	return n
}
