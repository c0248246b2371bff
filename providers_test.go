package particles

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/aiira-co/three-particles/sim"
)

func packedF32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func builtinProviders() []sim.Provider {
	return []sim.Provider{
		NewGravity(mgl32.Vec3{0, -1, 0}),
		NewWind(mgl32.Vec3{1, 0, 0}, 2),
		NewVortex(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 5, 3),
		NewPointAttractor(mgl32.Vec3{0, 4, 0}, 10),
		NewSpeedLimit(20),
		NewFloor(0, 0.4),
		NewWander(1.5, 0.5, 7),
	}
}

func TestProviderUniformSizesMatchPack(t *testing.T) {
	for _, p := range builtinProviders() {
		us, ok := p.(sim.UniformSource)
		if !ok {
			t.Fatalf("%s: built-ins all carry uniforms", p.Name())
		}
		buf := us.PackUniform(1.0, 0.016)
		if len(buf) != us.UniformSize() {
			t.Errorf("%s: packed %d bytes, declared %d", p.Name(), len(buf), us.UniformSize())
		}
		if us.UniformSize()%16 != 0 {
			t.Errorf("%s: uniform size %d not 16-aligned", p.Name(), us.UniformSize())
		}
	}
}

func TestProviderPriorities(t *testing.T) {
	g := NewGravity(mgl32.Vec3{})
	w := NewWind(mgl32.Vec3{1, 0, 0}, 1)
	v := NewVortex(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 1, 1)
	wn := NewWander(1, 1, 1)
	if !(g.Priority() < w.Priority() && w.Priority() < v.Priority() && v.Priority() < wn.Priority()) {
		t.Errorf("priorities out of order: %d %d %d %d",
			g.Priority(), w.Priority(), v.Priority(), wn.Priority())
	}
}

func TestWindGustAndNormalization(t *testing.T) {
	w := NewWind(mgl32.Vec3{3, 0, 0}, 2)
	w.GustAmplitude = 1
	w.GustFrequency = 0.25

	// sin(2pi * 0.25 * 1) = 1, so the gust doubles the strength.
	w.HostUpdate(1.0, 0.016)
	buf := w.PackUniform(1.0, 0.016)

	if got := packedF32(buf, 0); math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("direction.x = %v, want normalized 1", got)
	}
	if got := packedF32(buf, 12); math.Abs(float64(got-4)) > 1e-4 {
		t.Errorf("gusted strength = %v, want 4", got)
	}
}

func TestWindZeroGustKeepsStrength(t *testing.T) {
	w := NewWind(mgl32.Vec3{0, 0, 1}, 3)
	w.HostUpdate(0.5, 0.016)
	buf := w.PackUniform(0.5, 0.016)
	if got := packedF32(buf, 12); got != 3 {
		t.Errorf("strength = %v, want 3", got)
	}
}

func TestVortexPackClamps(t *testing.T) {
	v := NewVortex(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 2, 0}, 5, 0)
	buf := v.PackUniform(0, 0)

	if got := packedF32(buf, 20); got != 1 {
		t.Errorf("axis.y = %v, want normalized 1", got)
	}
	if got := packedF32(buf, 28); got != 1e-3 {
		t.Errorf("radius = %v, want clamped to 1e-3", got)
	}
	if got := packedF32(buf, 12); got != 5 {
		t.Errorf("strength = %v", got)
	}
}

func TestAttractorMinDistanceClamp(t *testing.T) {
	a := NewPointAttractor(mgl32.Vec3{}, 10)
	a.MinDistance = 0
	buf := a.PackUniform(0, 0)
	if got := packedF32(buf, 16); got != 1e-3 {
		t.Errorf("min_dist = %v, want clamped to 1e-3", got)
	}
}

func TestWanderSamplesMove(t *testing.T) {
	w := NewWander(1, 1, 42)
	w.HostUpdate(0.0, 0.016)
	first := w.samples
	w.HostUpdate(5.0, 0.016)
	second := w.samples

	moved := false
	for k := range first {
		for c := 0; c < 3; c++ {
			if first[k][c] != second[k][c] {
				moved = true
			}
			if v := second[k][c]; v < -1.1 || v > 1.1 {
				t.Errorf("sample[%d][%d] = %v outside noise range", k, c, v)
			}
		}
	}
	if !moved {
		t.Error("samples did not change between updates")
	}
}

func TestWanderUniformLayout(t *testing.T) {
	w := NewWander(2.5, 1, 9)
	w.HostUpdate(1.0, 0.016)
	buf := w.PackUniform(1.0, 0.016)

	if len(buf) != 80 {
		t.Fatalf("packed %d bytes", len(buf))
	}
	if got := packedF32(buf, 0); got != 2.5 {
		t.Errorf("strength = %v", got)
	}
	for k := 0; k < 4; k++ {
		base := 16 + k*16
		if got := packedF32(buf, base); got != w.samples[k].X() {
			t.Errorf("sample %d x = %v, want %v", k, got, w.samples[k].X())
		}
	}
}

func TestProviderWGSLReferencesOwnUniform(t *testing.T) {
	for _, p := range builtinProviders() {
		us := p.(sim.UniformSource)
		var snippets []string
		if fs, ok := p.(sim.ForceSource); ok {
			snippets = append(snippets, fs.ForceWGSL())
		}
		if vo, ok := p.(sim.VelocityOverride); ok {
			snippets = append(snippets, vo.VelocityWGSL())
		}
		if po, ok := p.(sim.PositionOverride); ok {
			snippets = append(snippets, po.PositionWGSL())
		}
		if len(snippets) == 0 {
			t.Fatalf("%s contributes no kernel code", p.Name())
		}
		for _, s := range snippets {
			if !strings.Contains(s, us.UniformName()+".") {
				t.Errorf("%s: snippet does not read its uniform: %q", p.Name(), s)
			}
		}
	}
}

func TestBuiltinsGenerateProgram(t *testing.T) {
	code := sim.GenerateSimulateWGSL(builtinProviders())

	for _, want := range []string{
		"struct Gravity_fieldUniforms",
		"struct WindUniforms",
		"struct VortexUniforms",
		"var<uniform> wander",
		"accel += wind.direction * wind.strength;",
		"speedlimit.max",
		"floor_plane.height",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("generated program missing %q", want)
		}
	}
	if strings.Contains(code, "//__") {
		t.Error("unexpanded template marker left in program")
	}
}
