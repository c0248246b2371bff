package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Provider is anything that contributes code or data to the simulate kernel.
// Concrete providers implement some subset of the capability interfaces
// below; the pipeline probes with type assertions.
//
// WGSL snippets run inside the kernel with these identifiers in scope:
//
//	idx   u32          particle index
//	p     vec3<f32>    position (current; overrides assign it)
//	v     vec3<f32>    velocity (current; overrides assign it)
//	accel vec3<f32>    force accumulator, force snippets add into it
//	age   f32          t - spawnTime, seconds
//	life  f32          lifetime, seconds
//	nage  f32          age / life, in [0, 1)
//	seed  f32          per-particle constant in [0, 1)
//	sp    SimParams    frame uniforms
//
// A snippet is a statement list, not an expression. Force snippets must only
// add to accel; override snippets assign v or p outright, which is what
// makes later registrations win.
type Provider interface {
	Name() string
}

// ForceSource adds acceleration. Sources apply in ascending Priority;
// equal priorities keep registration order.
type ForceSource interface {
	Provider
	Priority() int
	ForceWGSL() string
}

// VelocityOverride rewrites velocity after force integration, in
// registration order. Priority does not apply to overrides.
type VelocityOverride interface {
	Provider
	VelocityWGSL() string
}

// PositionOverride rewrites position after position integration, in
// registration order.
type PositionOverride interface {
	Provider
	PositionWGSL() string
}

// UniformSource owns a uniform block bound into the generated kernel.
// UniformName is the binding's instance identifier, unique across the
// provider set; UniformFields is the WGSL struct body (the declaration
// wrapper and binding index are generated). UniformSize is the packed byte
// size and must match what PackUniform returns every frame.
type UniformSource interface {
	Provider
	UniformName() string
	UniformFields() string
	UniformSize() int
	PackUniform(t, dt float64) []byte
}

// HostUpdater runs on the CPU each frame before uniforms are packed.
type HostUpdater interface {
	Provider
	HostUpdate(t, dt float64)
}

// Signature identifies a provider set for program caching: any change in
// membership, order, priority, or capability shape changes the signature and
// forces one rebuild; re-registering an identical set never recompiles.
func Signature(providers []Provider) string {
	var sb strings.Builder
	for _, p := range providers {
		sb.WriteString(p.Name())
		if fs, ok := p.(ForceSource); ok {
			fmt.Fprintf(&sb, "/f%d", fs.Priority())
		}
		if _, ok := p.(VelocityOverride); ok {
			sb.WriteString("/v")
		}
		if _, ok := p.(PositionOverride); ok {
			sb.WriteString("/p")
		}
		if us, ok := p.(UniformSource); ok {
			fmt.Fprintf(&sb, "/u%s:%d", us.UniformName(), us.UniformSize())
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// forceOrder returns the force sources sorted by ascending priority, ties
// keeping registration order.
func forceOrder(providers []Provider) []ForceSource {
	var out []ForceSource
	for _, p := range providers {
		if fs, ok := p.(ForceSource); ok {
			out = append(out, fs)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}
