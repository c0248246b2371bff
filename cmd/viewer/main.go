// viewer is a self-contained demo: a fountain preset with wind and a vortex,
// orbit camera, billboard sprites with depth sorting, ribbon trails, optional
// CSV telemetry and a live tuning websocket.
//
// Controls: drag orbits, right-drag pans, scroll zooms, space toggles
// play/pause, S stops, B bursts, escape quits.
package main

import (
	"flag"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	particles "github.com/aiira-co/three-particles"
	"github.com/aiira-co/three-particles/gpu"
	"github.com/aiira-co/three-particles/render"
	"github.com/aiira-co/three-particles/telemetry"
	"github.com/aiira-co/three-particles/tuning"
)

func init() {
	runtime.LockOSThread()
}

const telemetrySampleEvery = 10

type viewer struct {
	window  *glfw.Window
	ctx     *gpu.Context
	surface *wgpu.Surface
	surfCfg *wgpu.SurfaceConfiguration
	log     particles.Logger

	sys       *particles.System
	cam       *render.Camera
	sprites   *render.SpriteTexture
	billboard *render.Billboard
	ribbon    *render.Ribbon

	profiler *telemetry.Profiler
	output   *telemetry.Output
	times    telemetry.FrameTimes
	tuner    *tuning.Server

	orbiting bool
	panning  bool
	lastX    float64
	lastY    float64

	fpsFrames int
	fpsTime   float64
	lastTime  float64
}

func main() {
	preset := flag.String("preset", "", "YAML preset path (built-in fountain when empty)")
	capacity := flag.Int("capacity", 0, "override particle capacity")
	out := flag.String("out", "", "telemetry output directory (empty disables)")
	tune := flag.String("tune", "", "live tuning websocket address, e.g. :8080 (empty disables)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log := particles.NewDefaultLogger("viewer", *debug)

	cfg, err := demoConfig(*preset, *capacity)
	if err != nil {
		log.Errorf("config: %v", err)
		return
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "particles", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	v := &viewer{window: window, log: log}
	if err := v.initGPU(cfg); err != nil {
		log.Errorf("init: %v", err)
		return
	}
	defer v.release()

	if err := v.initTelemetry(*out, cfg); err != nil {
		log.Errorf("telemetry: %v", err)
		return
	}
	if *tune != "" {
		v.tuner = tuning.NewServer(v.sys, log)
		go func() {
			if err := v.tuner.ListenAndServe(*tune); err != nil {
				log.Warnf("tuning server stopped: %v", err)
			}
		}()
		defer v.tuner.Close()
	}

	v.installCallbacks()
	v.sys.Play()
	v.lastTime = glfw.GetTime()

	for !window.ShouldClose() {
		glfw.PollEvents()
		v.frame()
	}

	v.finishTelemetry()
}

// demoConfig loads a preset or builds the stock fountain: trails on, depth
// sorted alpha blending.
func demoConfig(path string, capacity int) (*particles.Config, error) {
	var cfg *particles.Config
	if path != "" {
		var err error
		cfg, err = particles.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = particles.DefaultConfig()
		cfg.Trail.Enabled = true
	}
	if capacity > 0 {
		cfg.Capacity = capacity
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (v *viewer) initGPU(cfg *particles.Config) error {
	ctx, surface, err := gpu.NewWindowContext(wgpuglfw.GetSurfaceDescriptor(v.window))
	if err != nil {
		return err
	}
	v.ctx = ctx
	v.surface = surface

	width, height := v.window.GetFramebufferSize()
	caps := surface.GetCapabilities(ctx.Adapter)
	v.surfCfg = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(ctx.Adapter, ctx.Device, v.surfCfg)

	sys, err := particles.NewSystem(ctx, cfg, v.log)
	if err != nil {
		return err
	}
	v.sys = sys

	if err := v.registerDemoProviders(); err != nil {
		return err
	}

	v.cam = render.NewCamera()
	v.sys.SetCamera(v.cam.Position())

	atlas := render.BuildAtlas(128)
	v.sprites, err = atlas.Upload(ctx.Device)
	if err != nil {
		return err
	}

	rc := cfg.Render
	v.billboard, err = render.NewBillboard(ctx.Device, sys.Store(), sys.OrderBuffer(), v.sprites, render.BillboardOptions{
		Format:    v.surfCfg.Format,
		Blend:     rc.Blend,
		FadeIn:    rc.FadeIn,
		FadeOut:   rc.FadeOut,
		SizeScale: rc.SizeScale,
		UVRect:    atlas.UVRect(render.SpriteSoftDisc),
	})
	if err != nil {
		return err
	}

	if trail := sys.TrailData(); trail != nil {
		v.ribbon, err = render.NewRibbon(ctx.Device, sys.Store(), trail, render.RibbonOptions{
			Format: v.surfCfg.Format,
			Blend:  rc.Blend,
			Width:  cfg.Trail.Width,
		})
		if err != nil {
			return err
		}
	}

	v.profiler = telemetry.NewProfiler()
	return nil
}

func (v *viewer) registerDemoProviders() error {
	wind := &particles.Wind{
		Direction:     mgl32.Vec3{1, 0, 0.2},
		Strength:      1.5,
		GustAmplitude: 2.0,
		GustFrequency: 0.4,
	}
	vortex := &particles.Vortex{
		Center:   mgl32.Vec3{0, 3, 0},
		Axis:     mgl32.Vec3{0, 1, 0},
		Strength: 6,
		Radius:   3,
	}
	for _, p := range []particles.Provider{wind, vortex} {
		if err := v.sys.RegisterProvider(p); err != nil {
			return err
		}
	}
	return nil
}

func (v *viewer) initTelemetry(dir string, cfg *particles.Config) error {
	out, err := telemetry.NewOutput(dir)
	if err != nil {
		return err
	}
	v.output = out
	return out.WriteConfig(cfg)
}

func (v *viewer) frame() {
	if v.tuner != nil {
		v.tuner.Apply()
	}

	v.profiler.Reset()
	frameDone := v.profiler.Scope("frame")

	v.sys.SetCamera(v.cam.Position())

	simDone := v.profiler.Scope("sim")
	if err := v.sys.Frame(); err != nil {
		v.log.Errorf("frame: %v", err)
	}
	simDone()

	renderDone := v.profiler.Scope("render")
	v.render()
	renderDone()

	frameDone()
	v.sampleTelemetry()
	v.updateTitle()
}

func (v *viewer) render() {
	nextTexture, err := v.surface.GetCurrentTexture()
	if err != nil {
		v.log.Errorf("get current texture: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		v.log.Errorf("create view: %v", err)
		return
	}
	defer view.Release()

	encoder, err := v.ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		v.log.Errorf("create encoder: %v", err)
		return
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0.015, G: 0.015, B: 0.03, A: 1},
		}},
	})

	aspect := float32(v.surfCfg.Width) / float32(v.surfCfg.Height)
	if aspect == 0 {
		aspect = 1
	}
	t := v.sys.Time()

	// Trails first so sprites composite on top.
	if v.ribbon != nil {
		v.ribbon.Draw(pass, v.cam, aspect, t)
	}
	v.billboard.Draw(pass, v.cam, aspect, t)

	if err := pass.End(); err != nil {
		v.log.Errorf("render pass end: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		v.log.Errorf("encoder finish: %v", err)
		return
	}
	v.ctx.Queue.Submit(cmd)
	v.surface.Present()
}

func (v *viewer) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.surfCfg.Width = uint32(width)
	v.surfCfg.Height = uint32(height)
	v.surface.Configure(v.ctx.Adapter, v.ctx.Device, v.surfCfg)
}

func (v *viewer) installCallbacks() {
	v.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		v.resize(width, height)
	})

	v.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		dx := float32(xpos - v.lastX)
		dy := float32(ypos - v.lastY)
		v.lastX, v.lastY = xpos, ypos
		if v.orbiting {
			v.cam.Orbit(dx, dy)
		} else if v.panning {
			v.cam.Pan(dx, dy)
		}
	})

	v.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		pressed := action == glfw.Press
		switch button {
		case glfw.MouseButtonLeft:
			v.orbiting = pressed
		case glfw.MouseButtonRight:
			v.panning = pressed
		}
		if pressed {
			v.lastX, v.lastY = w.GetCursorPos()
		}
	})

	v.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		v.cam.Zoom(float32(-yoff))
	})

	v.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			if v.sys.State() == particles.StatePlaying {
				v.sys.Pause()
				v.event("state", "paused")
			} else {
				v.sys.Play()
				v.event("state", "playing")
			}
		case glfw.KeyS:
			v.sys.Stop()
			v.event("state", "stopped")
		case glfw.KeyB:
			v.sys.Burst(500)
			v.event("burst", "n=500")
		}
	})
}

func (v *viewer) event(kind, detail string) {
	if err := v.output.WriteEvent(telemetry.EventRecord{SimTime: v.sys.Time(), Kind: kind, Detail: detail}); err != nil {
		v.log.Warnf("telemetry: %v", err)
	}
}

func (v *viewer) sampleTelemetry() {
	frameMS := v.profiler.ScopeMs("frame")
	v.times.Record(frameMS)

	stats := v.sys.Stats()
	if v.output == nil || stats.Frames%telemetrySampleEvery != 0 {
		return
	}
	err := v.output.WriteFrame(telemetry.FrameRecord{
		Frame:      stats.Frames,
		SimTime:    stats.Time,
		Alive:      uint32(stats.AliveEstimate),
		FrameMS:    frameMS,
		EncodeMS:   v.profiler.ScopeMs("sim"),
		SortPasses: stats.SortPasses,
		Rebuilds:   uint64(stats.Rebuilds),
	})
	if err != nil {
		v.log.Warnf("telemetry: %v", err)
	}
}

func (v *viewer) updateTitle() {
	v.fpsFrames++
	now := glfw.GetTime()
	v.fpsTime += now - v.lastTime
	v.lastTime = now
	if v.fpsTime < 1.0 {
		return
	}
	fps := float64(v.fpsFrames) / v.fpsTime
	v.fpsFrames = 0
	v.fpsTime = 0

	stats := v.sys.Stats()
	v.window.SetTitle(fmt.Sprintf("particles | %.0f fps | ~%d alive | %s", fps, stats.AliveEstimate, stats.State))
}

func (v *viewer) finishTelemetry() {
	if v.output == nil {
		return
	}
	sum := v.times.Summary(v.output.RunID(), v.sys.Time())
	if err := v.output.WriteSummary(sum); err != nil {
		v.log.Warnf("telemetry: %v", err)
	}
	if err := v.output.Close(); err != nil {
		v.log.Warnf("telemetry: %v", err)
	}
	v.log.Infof("run %s: %d frames, p50 %.2f ms, p99 %.2f ms", sum.RunID, sum.Frames, sum.P50MS, sum.P99MS)
}

func (v *viewer) release() {
	if v.ribbon != nil {
		v.ribbon.Release()
	}
	if v.billboard != nil {
		v.billboard.Release()
	}
	if v.sprites != nil {
		v.sprites.Release()
	}
	if v.sys != nil {
		v.sys.Release()
	}
	if v.surface != nil {
		v.surface.Release()
	}
	if v.ctx != nil {
		v.ctx.Release()
	}
}
