package particles

import "github.com/aiira-co/three-particles/sim"

// Providers extend the simulate kernel with extra behavior. A provider
// implements Provider plus any of the capability interfaces below; the
// kernel program is regenerated whenever the registered set changes shape.
//
// See sim.Provider for the WGSL snippet contract.
type (
	// Provider is the base interface every extension implements.
	Provider = sim.Provider

	// ForceSource contributes acceleration, applied in ascending Priority
	// order before velocity integration.
	ForceSource = sim.ForceSource

	// VelocityOverride rewrites velocity after integration, in
	// registration order, before drag.
	VelocityOverride = sim.VelocityOverride

	// PositionOverride rewrites position after position integration.
	PositionOverride = sim.PositionOverride

	// UniformSource gives a provider a uniform block the host packs every
	// frame.
	UniformSource = sim.UniformSource

	// HostUpdater runs host-side work each frame before uniforms are
	// packed.
	HostUpdater = sim.HostUpdater
)
