package sim

import (
	"encoding/binary"
	"math"
	"testing"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func u32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func TestParamsPackLayout(t *testing.T) {
	p := Params{
		Dt:            0.016,
		Time:          12.5,
		Capacity:      4096,
		SpawnOffset:   17,
		SpawnCount:    3,
		TimeKey:       12500,
		Drag:          0.25,
		ShapeKind:     3,
		Gravity:       [3]float32{0, -9.81, 0},
		LifetimeMin:   1,
		LifetimeMax:   2,
		SpeedMin:      0.5,
		SpeedMax:      1.5,
		SizeMin:       0.1,
		EmitterOrigin: [3]float32{1, 2, 3},
		SizeMax:       0.4,
		EmitterAxis:   [3]float32{0, 0, 1},
		ConeAngle:     0.3,
		ShapeParams:   [4]float32{2, 0, 0, 0},
		ColorMin:      [4]float32{1, 0, 0, 1},
		ColorMax:      [4]float32{1, 1, 0, 1},
	}
	buf := p.Pack()
	if len(buf) != ParamsSize {
		t.Fatalf("packed %d bytes, want %d", len(buf), ParamsSize)
	}

	if got := u32At(buf, 8); got != 4096 {
		t.Errorf("capacity at offset 8 = %d", got)
	}
	if got := u32At(buf, 12); got != 17 {
		t.Errorf("spawn_offset at offset 12 = %d", got)
	}
	if got := f32At(buf, 24); got != 0.25 {
		t.Errorf("drag at offset 24 = %v", got)
	}
	if got := u32At(buf, 28); got != 3 {
		t.Errorf("shape_kind at offset 28 = %d", got)
	}
	if got := f32At(buf, 36); got != -9.81 {
		t.Errorf("gravity.y at offset 36 = %v", got)
	}
	if got := f32At(buf, 44); got != 1 {
		t.Errorf("lifetime_min at offset 44 = %v", got)
	}
	if got := f32At(buf, 72); got != 3 {
		t.Errorf("emitter_origin.z at offset 72 = %v", got)
	}
	if got := f32At(buf, 76); got != 0.4 {
		t.Errorf("size_max at offset 76 = %v", got)
	}
	if got := f32At(buf, 92); got != 0.3 {
		t.Errorf("cone_angle at offset 92 = %v", got)
	}
	if got := f32At(buf, 140); got != 1 {
		t.Errorf("color_max.a at offset 140 = %v", got)
	}
}

func TestTimeKey(t *testing.T) {
	if TimeKey(0) != 0 {
		t.Errorf("TimeKey(0) = %d", TimeKey(0))
	}
	if TimeKey(-5) != 0 {
		t.Errorf("negative time should clamp to 0")
	}
	if got := TimeKey(1.0); got != 1000 {
		t.Errorf("TimeKey(1.0) = %d, want 1000", got)
	}
	if got := TimeKey(0.0164); got != 16 {
		t.Errorf("TimeKey(0.0164) = %d, want 16", got)
	}
	// consecutive frames land on distinct keys
	if TimeKey(0.016) == TimeKey(0.033) {
		t.Errorf("distinct frames share a time key")
	}
}
