package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/myrkr/go-crosec/firmware"
	"github.com/myrkr/go-crosec/updater"
	"github.com/myrkr/go-crosec/usb"
)

var flashCmd = &cobra.Command{
	Use:   "flash <image>",
	Short: "Write a firmware image to the device",
	Long: `Parse a full EC firmware image, pick the section the device can
accept while running its current copy, and stream it over the update
interface.

The image must be a complete EC binary with an embedded flashmap; the
device's handshake decides which of its sections (RO or RW) is
writeable.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlash,
}

func init() {
	rootCmd.AddCommand(flashCmd)
}

func runFlash(cmd *cobra.Command, args []string) error {
	vid, pid, err := deviceIDs()
	if err != nil {
		return err
	}

	blob, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	fw, err := firmware.Parse(blob)
	if err != nil {
		return fmt.Errorf("failed to parse image: %w", err)
	}

	dev, err := usb.Open(vid, pid)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open device")
		return err
	}
	defer dev.Close()

	u := updater.New(dev,
		updater.WithLogger(zerologAdapter{log: logger}),
		updater.WithProgressCallback(printProgress(cmd)),
	)

	session, err := u.Setup(cmd.Context())
	if err != nil {
		logger.Error().Err(err).Msg("handshake failed")
		return err
	}
	logger.Info().
		Str("version", session.RawVersion).
		Str("offset", fmt.Sprintf("%#x", session.WriteableOffset)).
		Msg("device ready")

	if err := fw.PickSections(session.WriteableOffset); err != nil {
		return err
	}

	err = u.WriteFirmware(cmd.Context(), fw)
	if errors.Is(err, updater.ErrNothingToDo) {
		cmd.Println("Nothing to write.")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("firmware write failed")
		return err
	}

	cmd.Println("Done. Reset the device to run the new firmware.")
	return nil
}

// printProgress renders a single updating progress line on the terminal.
func printProgress(cmd *cobra.Command) updater.ProgressCallback {
	return func(p updater.Progress) {
		switch p.Phase {
		case updater.PhaseWrite:
			cmd.Printf("\r%s: %d/%d bytes (%.1f%%)",
				p.Section, p.BytesWritten, p.TotalBytes, p.Percentage)
		case updater.PhaseComplete:
			cmd.Printf("\rWrote %d bytes in %s          \n",
				p.BytesWritten, p.Elapsed.Round(10*time.Millisecond))
		}
	}
}
