package render

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestBlendStateModes(t *testing.T) {
	alpha := blendState("alpha")
	if alpha.Color.DstFactor != wgpu.BlendFactorOneMinusSrcAlpha {
		t.Errorf("alpha dst factor = %v", alpha.Color.DstFactor)
	}

	additive := blendState("additive")
	if additive.Color.DstFactor != wgpu.BlendFactorOne {
		t.Errorf("additive dst factor = %v", additive.Color.DstFactor)
	}
	if additive.Color.SrcFactor != wgpu.BlendFactorSrcAlpha {
		t.Errorf("additive src factor = %v", additive.Color.SrcFactor)
	}

	// Unknown modes fall back to alpha rather than failing at pipeline
	// creation.
	if got := blendState("nonsense"); got.Color.DstFactor != alpha.Color.DstFactor {
		t.Errorf("fallback blend = %+v", got)
	}
}

func TestDepthStateOptional(t *testing.T) {
	if ds := depthState(wgpu.TextureFormatUndefined); ds != nil {
		t.Errorf("undefined format produced depth state %+v", ds)
	}

	ds := depthState(wgpu.TextureFormatDepth24Plus)
	if ds == nil {
		t.Fatal("no depth state for a real format")
	}
	if ds.DepthWriteEnabled {
		t.Error("transparent particles must not write depth")
	}
	if ds.DepthCompare != wgpu.CompareFunctionLess {
		t.Errorf("depth compare = %v", ds.DepthCompare)
	}
}
