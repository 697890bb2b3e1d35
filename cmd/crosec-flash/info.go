package main

import (
	"github.com/spf13/cobra"

	"github.com/myrkr/go-crosec/updater"
	"github.com/myrkr/go-crosec/usb"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Query the device's running firmware",
	Long: `Connect to the device, perform the update handshake and print the
information it reports: running version, protocol version, flash
protection status and the offset of the writeable section.

The handshake leaves the device waiting for blocks; no firmware is
written.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	vid, pid, err := deviceIDs()
	if err != nil {
		return err
	}

	dev, err := usb.Open(vid, pid)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open device")
		return err
	}
	defer dev.Close()

	u := updater.New(dev, updater.WithLogger(zerologAdapter{log: logger}))
	if _, err := u.Setup(cmd.Context()); err != nil {
		logger.Error().Err(err).Msg("handshake failed")
		return err
	}

	cmd.Print(u.Describe())
	return nil
}
