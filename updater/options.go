package updater

import "time"

// Config holds the updater configuration.
type Config struct {
	// ProgressCallback is called during writes to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// SetupRetries bounds the flush and start-request attempts
	SetupRetries int

	// BlockRetries bounds the attempts per firmware block
	BlockRetries int

	// FlushTimeout is the receive timeout for the idle-flush probe; short,
	// because a timeout here is the expected idle outcome
	FlushTimeout time.Duration

	// SendTimeout is the timeout for bulk sends
	SendTimeout time.Duration

	// RecvTimeout is the timeout for bulk receives; longer than sends
	// because device-side flashing can be slow to acknowledge
	RecvTimeout time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		SetupRetries: 5,
		BlockRetries: 10,
		FlushTimeout: 10 * time.Millisecond,
		SendTimeout:  2 * time.Second,
		RecvTimeout:  5 * time.Second,
	}
}

// Option is a functional option for configuring the Updater.
type Option func(*Config)

// WithProgressCallback sets a callback function to track write progress.
//
// Example:
//
//	u := updater.New(dev,
//	    updater.WithProgressCallback(func(p updater.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for updater operations.
//
// Example:
//
//	u := updater.New(dev, updater.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSetupRetries sets the number of attempts for the handshake steps.
func WithSetupRetries(retries int) Option {
	return func(c *Config) {
		if retries > 0 {
			c.SetupRetries = retries
		}
	}
}

// WithBlockRetries sets the number of attempts per firmware block.
func WithBlockRetries(retries int) Option {
	return func(c *Config) {
		if retries > 0 {
			c.BlockRetries = retries
		}
	}
}

// WithFlushTimeout sets the receive timeout for the idle-flush probe.
func WithFlushTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.FlushTimeout = timeout
		}
	}
}

// WithSendTimeout sets the timeout for bulk sends.
func WithSendTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.SendTimeout = timeout
		}
	}
}

// WithRecvTimeout sets the timeout for bulk receives.
func WithRecvTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.RecvTimeout = timeout
		}
	}
}
