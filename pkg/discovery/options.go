package discovery

import (
	"time"

	"github.com/pion/logging"

	"github.com/climatelan/greelink/pkg/transport"
)

// DefaultTimeout is the default per-interface scan wait, used when Scan is
// called with a non-positive wait.
const DefaultTimeout = 10 * time.Second

type config struct {
	timeout       time.Duration
	allowLoopback bool
	port          int
	loggerFactory logging.LoggerFactory
}

func defaultConfig() config {
	return config{
		timeout: DefaultTimeout,
		port:    transport.DefaultPort,
	}
}

// Option configures a Scanner.
type Option func(*config)

// WithTimeout overrides the per-interface scan wait used when Scan is
// called with a non-positive wait (spec.md §6's "timeout" configuration
// knob).
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithAllowLoopback includes loopback interfaces in interface enumeration
// (spec.md §6's "allow_loopback" configuration knob). Excluded by default.
func WithAllowLoopback(allow bool) Option {
	return func(c *config) { c.allowLoopback = allow }
}

// WithPort overrides the UDP port devices listen on. Defaults to
// transport.DefaultPort.
func WithPort(port int) Option {
	return func(c *config) { c.port = port }
}

// WithLoggerFactory supplies a logger. Logging is disabled if not set.
func WithLoggerFactory(lf logging.LoggerFactory) Option {
	return func(c *config) { c.loggerFactory = lf }
}
