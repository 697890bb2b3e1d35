package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/gousb"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	vidFlag string
	pidFlag string
	verbose bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crosec-flash",
	Short: "ChromeOS EC firmware update tool",
	Long: `crosec-flash talks to the USB update interface of ChromeOS embedded
controllers (hammer, servo_micro and friends) to query their running
firmware and to flash new images.

The device is selected by USB vendor/product ID:

  crosec-flash --vid 18d1 --pid 5022 info
  crosec-flash --vid 18d1 --pid 5022 flash ec.bin`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vidFlag, "vid", "18d1", "USB vendor ID (hex)")
	rootCmd.PersistentFlags().StringVar(&pidFlag, "pid", "5022", "USB product ID (hex)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.SetOut(os.Stdout)
}

// deviceIDs parses the --vid/--pid flags into gousb IDs.
func deviceIDs() (gousb.ID, gousb.ID, error) {
	vid, err := strconv.ParseUint(vidFlag, 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid vendor ID %q: %w", vidFlag, err)
	}
	pid, err := strconv.ParseUint(pidFlag, 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid product ID %q: %w", pidFlag, err)
	}
	return gousb.ID(vid), gousb.ID(pid), nil
}

// zerologAdapter bridges the updater's logging callbacks onto zerolog.
type zerologAdapter struct {
	log zerolog.Logger
}

func (a zerologAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.emit(a.log.Debug(), msg, keysAndValues)
}

func (a zerologAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.emit(a.log.Info(), msg, keysAndValues)
}

func (a zerologAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.emit(a.log.Error(), msg, keysAndValues)
}

func (a zerologAdapter) emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}
