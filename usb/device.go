package usb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/myrkr/go-crosec/protocol"
)

// updateInterface locates the update interface within a device descriptor.
type updateInterface struct {
	config        int
	number        int
	alternate     int
	endpoint      int
	maxPacketSize int
}

// findUpdateInterface scans a device descriptor for the vendor-specific
// update interface and its bulk endpoint pair. The endpoint with the
// lowest number is used; IN and OUT share that number.
func findUpdateInterface(desc *gousb.DeviceDesc) (*updateInterface, error) {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, setting := range intf.AltSettings {
				if setting.Class != gousb.ClassVendorSpec ||
					setting.SubClass != gousb.Class(protocol.SubclassGoogleUpdate) ||
					setting.Protocol != gousb.Protocol(protocol.ProtocolGoogleUpdate) {
					continue
				}
				found := false
				epNum := 0
				maxPacket := 0
				for _, ep := range setting.Endpoints {
					if ep.TransferType != gousb.TransferTypeBulk {
						continue
					}
					if !found || ep.Number < epNum {
						epNum = ep.Number
						maxPacket = ep.MaxPacketSize
						found = true
					}
				}
				if !found {
					continue
				}
				if maxPacket == 0 {
					return nil, fmt.Errorf("wMaxPacketSize isn't valid: 0")
				}
				return &updateInterface{
					config:        cfg.Number,
					number:        setting.Number,
					alternate:     setting.Alternate,
					endpoint:      epNum,
					maxPacketSize: maxPacket,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("no update interface found")
}

// Device is a claimed update interface on a physical EC. It implements
// updater.Transport and must be Closed when done.
type Device struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint

	maxPacketSize int
}

// Open finds the device with the given vendor/product ID, locates its
// update interface and claims it. The kernel driver, if bound, is
// detached for the session and rebound on Close.
func Open(vid, pid gousb.ID) (*Device, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		_ = ctx.Close()
		return nil, fmt.Errorf("failed to open device %s:%s: %w", vid, pid, err)
	}
	if dev == nil {
		_ = ctx.Close()
		return nil, fmt.Errorf("device %s:%s not found", vid, pid)
	}

	d, err := claim(ctx, dev)
	if err != nil {
		_ = dev.Close()
		_ = ctx.Close()
		return nil, err
	}
	return d, nil
}

func claim(ctx *gousb.Context, dev *gousb.Device) (*Device, error) {
	upd, err := findUpdateInterface(dev.Desc)
	if err != nil {
		return nil, fmt.Errorf("failed to find update interface: %w", err)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		return nil, fmt.Errorf("failed to set auto-detach: %w", err)
	}

	cfg, err := dev.Config(upd.config)
	if err != nil {
		return nil, fmt.Errorf("failed to select config %d: %w", upd.config, err)
	}

	intf, err := cfg.Interface(upd.number, upd.alternate)
	if err != nil {
		_ = cfg.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	in, err := intf.InEndpoint(upd.endpoint)
	if err != nil {
		intf.Close()
		_ = cfg.Close()
		return nil, fmt.Errorf("failed to open IN endpoint %d: %w", upd.endpoint, err)
	}
	out, err := intf.OutEndpoint(upd.endpoint)
	if err != nil {
		intf.Close()
		_ = cfg.Close()
		return nil, fmt.Errorf("failed to open OUT endpoint %d: %w", upd.endpoint, err)
	}

	return &Device{
		ctx:           ctx,
		dev:           dev,
		cfg:           cfg,
		intf:          intf,
		in:            in,
		out:           out,
		maxPacketSize: upd.maxPacketSize,
	}, nil
}

// Send writes buf to the OUT endpoint, bounded by timeout.
func (d *Device) Send(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.out.WriteContext(ctx, buf)
}

// Recv reads up to len(buf) bytes from the IN endpoint, bounded by
// timeout.
func (d *Device) Recv(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.in.ReadContext(ctx, buf)
}

// MaxPacketSize returns the bulk endpoint's wMaxPacketSize.
func (d *Device) MaxPacketSize() int {
	return d.maxPacketSize
}

// Close releases the interface and all USB resources.
func (d *Device) Close() error {
	d.intf.Close()
	err := d.cfg.Close()
	if devErr := d.dev.Close(); err == nil {
		err = devErr
	}
	if ctxErr := d.ctx.Close(); err == nil {
		err = ctxErr
	}
	return err
}
