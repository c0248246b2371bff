package particles

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of one particle system. Load starts from the
// embedded defaults and overlays a user preset, so presets only need the
// fields they change.
type Config struct {
	Capacity     int     `yaml:"capacity"`
	EmissionRate float64 `yaml:"emission_rate"` // particles per second

	Lifetime Range `yaml:"lifetime"` // seconds
	Speed    Range `yaml:"speed"`
	Size     Range `yaml:"size"`

	Gravity [3]float32 `yaml:"gravity"`
	Drag    float32    `yaml:"drag"` // 1/s velocity damping

	Emitter EmitterConfig `yaml:"emitter"`
	Color   ColorConfig   `yaml:"color"`
	Render  RenderConfig  `yaml:"render"`
	Trail   TrailConfig   `yaml:"trail"`
	Clock   ClockConfig   `yaml:"clock"`
}

// Range is an inclusive [Min, Max] sampling interval.
type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// EmitterConfig places and aims the emitter.
type EmitterConfig struct {
	Origin       [3]float32  `yaml:"origin"`
	Axis         [3]float32  `yaml:"axis"`
	ConeAngleDeg float32     `yaml:"cone_angle_deg"` // spray half-angle around the axis
	Shape        ShapeConfig `yaml:"shape"`
}

// ShapeConfig selects the emitter shape. Only the fields the kind uses are
// read; the rest are ignored.
type ShapeConfig struct {
	Kind        string     `yaml:"kind"` // point | box | sphere | cone
	Radius      float32    `yaml:"radius"`
	HalfExtents [3]float32 `yaml:"half_extents"`
	Shell       bool       `yaml:"shell"` // sphere only: surface instead of volume
}

// ColorConfig is the per-particle base color range, RGBA in [0,1].
type ColorConfig struct {
	Min [4]float32 `yaml:"min"`
	Max [4]float32 `yaml:"max"`
}

// RenderConfig holds the renderer-facing knobs the engine forwards.
type RenderConfig struct {
	Sorted    bool    `yaml:"sorted"` // depth sort for back-to-front blending
	Blend     string  `yaml:"blend"`  // alpha | additive
	FadeIn    float32 `yaml:"fade_in"`  // fraction of lifetime
	FadeOut   float32 `yaml:"fade_out"` // fraction of lifetime
	SizeScale float32 `yaml:"size_scale"`
}

// TrailConfig sizes the trail ring. Ring memory is segments x capacity x
// 16 bytes; large capacities with long trails add up.
type TrailConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Segments int     `yaml:"segments"`
	Interval float64 `yaml:"interval"` // seconds between ring samples
	Width    float32 `yaml:"width"`
}

// ClockConfig controls sim-time bookkeeping.
type ClockConfig struct {
	TimeScale float64 `yaml:"time_scale"`
	MaxDt     float64 `yaml:"max_dt"` // clamp for wall-clock frame spikes
}

// Load reads a preset from path, overlaid on the embedded defaults, and
// validates the result. An empty path loads the defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading preset: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing preset %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("particles: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Validate rejects configs the engine cannot run. Errors wrap
// ErrInvalidConfig and name the offending field and value.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Capacity <= 0 {
		return fail("capacity %d, must be positive", c.Capacity)
	}
	if c.EmissionRate < 0 {
		return fail("emission_rate %g, must be >= 0", c.EmissionRate)
	}
	if c.Lifetime.Min <= 0 || c.Lifetime.Max < c.Lifetime.Min {
		return fail("lifetime [%g, %g], need 0 < min <= max", c.Lifetime.Min, c.Lifetime.Max)
	}
	if c.Speed.Min < 0 || c.Speed.Max < c.Speed.Min {
		return fail("speed [%g, %g], need 0 <= min <= max", c.Speed.Min, c.Speed.Max)
	}
	if c.Size.Min <= 0 || c.Size.Max < c.Size.Min {
		return fail("size [%g, %g], need 0 < min <= max", c.Size.Min, c.Size.Max)
	}
	if c.Drag < 0 {
		return fail("drag %g, must be >= 0", c.Drag)
	}
	if a := c.Emitter.ConeAngleDeg; a < 0 || a > 180 {
		return fail("emitter.cone_angle_deg %g, must be in [0, 180]", a)
	}
	if _, err := c.Shape(); err != nil {
		return err
	}
	switch c.Render.Blend {
	case "alpha", "additive":
	default:
		return fail("render.blend %q, must be alpha or additive", c.Render.Blend)
	}
	if c.Render.FadeIn < 0 || c.Render.FadeIn > 1 || c.Render.FadeOut < 0 || c.Render.FadeOut > 1 {
		return fail("render fade_in %g / fade_out %g, must be fractions in [0, 1]",
			c.Render.FadeIn, c.Render.FadeOut)
	}
	if c.Render.SizeScale <= 0 {
		return fail("render.size_scale %g, must be positive", c.Render.SizeScale)
	}
	if c.Trail.Enabled {
		if c.Trail.Segments < 2 {
			return fail("trail.segments %d, need at least 2", c.Trail.Segments)
		}
		if c.Trail.Interval <= 0 {
			return fail("trail.interval %g, must be positive", c.Trail.Interval)
		}
		if c.Trail.Width <= 0 {
			return fail("trail.width %g, must be positive", c.Trail.Width)
		}
	}
	if c.Clock.TimeScale <= 0 {
		return fail("clock.time_scale %g, must be positive", c.Clock.TimeScale)
	}
	if c.Clock.MaxDt <= 0 {
		return fail("clock.max_dt %g, must be positive", c.Clock.MaxDt)
	}
	return nil
}

// Shape builds the EmitterShape the config selects.
func (c *Config) Shape() (EmitterShape, error) {
	s := c.Emitter.Shape
	switch s.Kind {
	case "", "point":
		return PointShape{}, nil
	case "box":
		for _, e := range s.HalfExtents {
			if e < 0 {
				return nil, fmt.Errorf("%w: emitter.shape.half_extents %v, must be >= 0", ErrInvalidConfig, s.HalfExtents)
			}
		}
		return BoxShape{HalfExtents: mgl32.Vec3{s.HalfExtents[0], s.HalfExtents[1], s.HalfExtents[2]}}, nil
	case "sphere":
		if s.Radius < 0 {
			return nil, fmt.Errorf("%w: emitter.shape.radius %g, must be >= 0", ErrInvalidConfig, s.Radius)
		}
		return SphereShape{Radius: s.Radius, ShellOnly: s.Shell}, nil
	case "cone":
		if s.Radius < 0 {
			return nil, fmt.Errorf("%w: emitter.shape.radius %g, must be >= 0", ErrInvalidConfig, s.Radius)
		}
		return ConeShape{Radius: s.Radius}, nil
	default:
		return nil, fmt.Errorf("%w: emitter.shape.kind %q, must be point, box, sphere or cone", ErrInvalidConfig, s.Kind)
	}
}

// ConeAngle returns the spray half-angle in radians.
func (c *Config) ConeAngle() float32 {
	return mgl32.DegToRad(c.Emitter.ConeAngleDeg)
}

// WriteYAML snapshots the config to a preset file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing preset: %w", err)
	}
	return nil
}
