package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// Context owns the WebGPU objects shared by every particle system: one
// instance, one adapter, one device, one queue. Simulation-only use passes a
// nil surface; a viewer passes its window surface so the adapter is picked
// for presentation compatibility.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue

	lost atomic.Bool
}

func NewContext(surface *wgpu.Surface) (*Context, error) {
	c := &Context{}
	c.Instance = wgpu.CreateInstance(nil)
	if err := c.init(surface); err != nil {
		return nil, err
	}
	return c, nil
}

// NewWindowContext creates the window surface alongside the context so the
// adapter request can name it as compatible. The caller configures, presents
// and releases the surface; Release leaves it alone.
func NewWindowContext(desc *wgpu.SurfaceDescriptor) (*Context, *wgpu.Surface, error) {
	c := &Context{}
	c.Instance = wgpu.CreateInstance(nil)
	surface := c.Instance.CreateSurface(desc)
	if err := c.init(surface); err != nil {
		return nil, nil, err
	}
	return c, surface, nil
}

func (c *Context) init(surface *wgpu.Surface) error {
	adapter, err := c.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("failed to request adapter: %w", err)
	}
	c.Adapter = adapter

	c.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("failed to request device: %w", err)
	}
	c.Queue = c.Device.GetQueue()

	return nil
}

// MarkLost records that the device is gone. Frame paths check Lost and skip
// their dispatches; nothing after device loss is an error worth crashing on.
func (c *Context) MarkLost() { c.lost.Store(true) }

func (c *Context) Lost() bool { return c.lost.Load() }

func (c *Context) Release() {
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
