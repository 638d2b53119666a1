package device

import (
	"time"

	"github.com/pion/logging"

	"github.com/climatelan/greelink/pkg/cipher"
)

// DefaultTimeout bounds bind, status, and command round-trips.
const DefaultTimeout = 10 * time.Second

type config struct {
	timeout       time.Duration
	cipherSpec    cipher.Spec
	loggerFactory logging.LoggerFactory
}

func defaultConfig() config {
	return config{
		timeout:    DefaultTimeout,
		cipherSpec: cipher.V1,
	}
}

// Option configures a Session.
type Option func(*config)

// WithTimeout overrides the per-operation timeout (spec.md §6's "timeout"
// configuration knob).
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithCipherSpec selects the cipher scheme the device family speaks
// (spec.md §6's "cipher" configuration knob). Defaults to V1.
func WithCipherSpec(spec cipher.Spec) Option {
	return func(c *config) { c.cipherSpec = spec }
}

// WithLoggerFactory supplies a logger. Logging is disabled if not set.
func WithLoggerFactory(lf logging.LoggerFactory) Option {
	return func(c *config) { c.loggerFactory = lf }
}
