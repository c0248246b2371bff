package sim

import (
	"fmt"
	"strings"

	"github.com/aiira-co/three-particles/shaders"
)

// Markers in the simulate template replaced by generated code. The template
// compiles as-is with every marker blanked, which is the zero-provider
// program.
const (
	markProviderUniforms  = "//__PROVIDER_UNIFORMS__"
	markForces            = "//__FORCES__"
	markVelocityOverrides = "//__VELOCITY_OVERRIDES__"
	markPositionOverrides = "//__POSITION_OVERRIDES__"
)

// GenerateSimulateWGSL folds the provider set into the simulate kernel
// template. Output is deterministic for a given set, so Signature doubles as
// the cache key for the compiled program.
func GenerateSimulateWGSL(providers []Provider) string {
	var uniforms, forces, velOv, posOv strings.Builder

	binding := 0
	for _, p := range providers {
		us, ok := p.(UniformSource)
		if !ok {
			continue
		}
		structName := uniformStructName(us.UniformName())
		fmt.Fprintf(&uniforms, "struct %s {\n%s\n}\n", structName, strings.TrimRight(us.UniformFields(), "\n"))
		fmt.Fprintf(&uniforms, "@group(1) @binding(%d) var<uniform> %s: %s;\n", binding, us.UniformName(), structName)
		binding++
	}

	for _, fs := range forceOrder(providers) {
		fmt.Fprintf(&forces, "    // %s (priority %d)\n    {\n%s\n    }\n", fs.Name(), fs.Priority(), indent(fs.ForceWGSL(), "        "))
	}

	for _, p := range providers {
		if vo, ok := p.(VelocityOverride); ok {
			fmt.Fprintf(&velOv, "    // %s\n    {\n%s\n    }\n", vo.Name(), indent(vo.VelocityWGSL(), "        "))
		}
	}
	for _, p := range providers {
		if po, ok := p.(PositionOverride); ok {
			fmt.Fprintf(&posOv, "    // %s\n    {\n%s\n    }\n", po.Name(), indent(po.PositionWGSL(), "        "))
		}
	}

	src := shaders.SimulateTemplate
	src = strings.Replace(src, markProviderUniforms, uniforms.String(), 1)
	src = strings.Replace(src, markForces, forces.String(), 1)
	src = strings.Replace(src, markVelocityOverrides, velOv.String(), 1)
	src = strings.Replace(src, markPositionOverrides, posOv.String(), 1)
	return src
}

// UniformBindings returns the UniformSources in binding order for group(1),
// matching what GenerateSimulateWGSL emitted.
func UniformBindings(providers []Provider) []UniformSource {
	var out []UniformSource
	for _, p := range providers {
		if us, ok := p.(UniformSource); ok {
			out = append(out, us)
		}
	}
	return out
}

func uniformStructName(instance string) string {
	if instance == "" {
		return "Uniforms"
	}
	return strings.ToUpper(instance[:1]) + instance[1:] + "Uniforms"
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
