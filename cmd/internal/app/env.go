package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed env vars with defaults and records every malformed value,
// so a typo in SCRAMGEN_* fails the command instead of silently using a default.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func newEnvReader(lookup func(string) (string, bool)) *envReader {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &envReader{lookup: lookup}
}

func (r *envReader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) fail(key, v, reason string) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %s", key, v, reason))
}

// String reads a string env var with a default.
func (r *envReader) String(key, def string) string {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	return v
}

// Bool reads a bool env var with a default.
func (r *envReader) Bool(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, "invalid boolean")
		return def
	}
	return b
}

// Int reads an int env var bounded to [minVal..maxVal].
func (r *envReader) Int(key string, def, minVal, maxVal int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, "not an integer")
		return def
	}
	if n < minVal || n > maxVal {
		r.fail(key, v, fmt.Sprintf("out of range [%d..%d]", minVal, maxVal))
		return def
	}
	return n
}

// Int32 reads an int32 env var bounded to [minVal..maxVal].
func (r *envReader) Int32(key string, def, minVal, maxVal int32) int32 {
	return int32(r.Int(key, int(def), int(minVal), int(maxVal))) // #nosec G115 -- bounded by minVal/maxVal.
}

// Duration reads a positive duration env var with a default.
func (r *envReader) Duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.fail(key, v, "invalid positive duration")
		return def
	}
	return d
}

// Err reports every malformed variable seen so far.
func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}
