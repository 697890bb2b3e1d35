// Package usb provides the gousb-backed transport for talking to a
// ChromeOS EC's update interface.
//
// The update interface is a vendor-specific USB interface (class 0xFF,
// subclass 0x53, protocol 0xFF) exposing one bulk endpoint pair. Open
// finds it on the device, claims it with the kernel driver detached, and
// returns a Device satisfying updater.Transport:
//
//	dev, err := usb.Open(0x18d1, 0x5022)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	u := updater.New(dev)
package usb
