package capture

import (
	"context"
	"errors"
	"sync"
)

// Device is an open camera that can grab single frames.
type Device interface {
	Grab(ctx context.Context) (Image, error)
	Close() error
}

// OpenFunc acquires a camera. Failures should be *DeviceError.
type OpenFunc func(ctx context.Context) (Device, error)

var errReleased = errors.New("camera released")

// Camera scopes one device acquisition to a capture screen. Start may run
// on a command goroutine while Release runs on the UI loop, so all state is
// behind a mutex and a device opened after Release is closed immediately.
type Camera struct {
	mu       sync.Mutex
	open     OpenFunc
	dev      Device
	err      *DeviceError
	released bool
}

// NewCamera returns an idle camera that acquires with open.
func NewCamera(open OpenFunc) *Camera {
	return &Camera{open: open}
}

// Start acquires the device. It returns the classified failure, if any.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return errReleased
	}
	if c.dev != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	dev, err := c.open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = AsDeviceError(err)
		return c.err
	}
	if c.released {
		dev.Close()
		return errReleased
	}
	c.dev = dev
	c.err = nil
	return nil
}

// Ready reports whether a device is held.
func (c *Camera) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev != nil
}

// Err returns the last acquisition failure.
func (c *Camera) Err() *DeviceError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Grab captures one frame from the held device.
func (c *Camera) Grab(ctx context.Context) (Image, error) {
	c.mu.Lock()
	dev := c.dev
	c.mu.Unlock()
	if dev == nil {
		return Image{}, &DeviceError{Kind: KindNoDevice, Err: errors.New("camera not started")}
	}
	img, err := dev.Grab(ctx)
	if err != nil {
		return Image{}, AsDeviceError(err)
	}
	return img, nil
}

// Release closes the device. It is safe to call more than once and from
// any goroutine.
func (c *Camera) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	if c.dev == nil {
		return nil
	}
	err := c.dev.Close()
	c.dev = nil
	return err
}
