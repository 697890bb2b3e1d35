// crosec-flash updates the firmware of ChromeOS EC devices over their USB
// update interface.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
