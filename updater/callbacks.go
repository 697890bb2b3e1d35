package updater

import "time"

// Update phases reported through Progress.
const (
	// PhaseSetup covers the endpoint flush and handshake
	PhaseSetup = "setup"

	// PhaseWrite covers section block transfers
	PhaseWrite = "write"

	// PhaseComplete is reported once after a successful write
	PhaseComplete = "complete"
)

// Progress describes how far a firmware write has advanced. Passed to
// ProgressCallback after every accepted block.
type Progress struct {
	// Phase is one of PhaseSetup, PhaseWrite, PhaseComplete
	Phase string

	// Section is the name of the section currently being written
	Section string

	// BytesWritten is the number of payload bytes accepted so far
	BytesWritten int

	// TotalBytes is the number of payload bytes the write will send,
	// after trimming
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// Elapsed is the time since the write started
	Elapsed time.Duration
}

// ProgressCallback is called during a write to report progress.
// Implementations should return quickly; the transfer blocks on them.
//
// Example:
//
//	u := updater.New(dev,
//	    updater.WithProgressCallback(func(p updater.Progress) {
//	        fmt.Printf("[%s] %.1f%% %s\n", p.Phase, p.Percentage, p.Section)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface, allowing integration with any
// logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
