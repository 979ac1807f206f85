// Package envconfig reads gradtape's environment configuration.
//
// Every setting is a getter that re-reads the environment on each call, so
// tests can override values with t.Setenv. Command-line flags take
// precedence over these values.
package envconfig

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// Var returns the trimmed value of an environment variable with surrounding
// quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Verbosity returns the klog verbosity selected by GRADTAPE_DEBUG.
// A boolean true selects 4 (backward replays); an integer selects that
// level directly.
func Verbosity() klog.Level {
	s := Var("GRADTAPE_DEBUG")
	if s == "" {
		return 0
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return 4
		}
		return 0
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		return klog.Level(n)
	}
	klog.InfoS("Invalid environment variable, ignoring", "key", "GRADTAPE_DEBUG", "value", s)
	return 0
}

var (
	// Workers is the number of computation chains run concurrently.
	Workers = Uint("GRADTAPE_WORKERS", uint(runtime.NumCPU()))

	// Seed seeds parameter initialization.
	Seed = Uint64("GRADTAPE_SEED", 1)

	// Tolerance is the relative tolerance of gradient checks.
	Tolerance = Float("GRADTAPE_TOLERANCE", 1e-4)
)

// Uint returns a getter for a uint with a default value.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				klog.InfoS("Invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 returns a getter for a uint64 with a default value.
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				klog.InfoS("Invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// Float returns a getter for a positive float64 with a default value.
func Float(key string, defaultValue float64) func() float64 {
	return func() float64 {
		if s := Var(key); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err != nil || f <= 0 {
				klog.InfoS("Invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return f
			}
		}
		return defaultValue
	}
}

// EnvVar describes one environment variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every setting with its current value and description.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"GRADTAPE_DEBUG":     {"GRADTAPE_DEBUG", Verbosity(), "Log verbosity (true = 4, or an explicit klog level)"},
		"GRADTAPE_WORKERS":   {"GRADTAPE_WORKERS", Workers(), "Maximum number of chains run concurrently (default: CPU count)"},
		"GRADTAPE_SEED":      {"GRADTAPE_SEED", Seed(), "Seed for parameter initialization (default: 1)"},
		"GRADTAPE_TOLERANCE": {"GRADTAPE_TOLERANCE", Tolerance(), "Relative tolerance of gradient checks (default: 1e-4)"},
	}
}

// Values returns every setting as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
