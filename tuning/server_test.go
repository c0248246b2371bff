package tuning

import (
	"encoding/json"
	"testing"
)

func TestPatchPartialDecode(t *testing.T) {
	var p Patch
	if err := json.Unmarshal([]byte(`{"drag": 0.2, "cmd": "pause"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Drag == nil || *p.Drag != 0.2 {
		t.Errorf("drag = %v", p.Drag)
	}
	if p.EmissionRate != nil {
		t.Error("absent emission_rate decoded non-nil")
	}
	if p.Gravity != nil {
		t.Error("absent gravity decoded non-nil")
	}
	if p.Command != "pause" {
		t.Errorf("cmd = %q", p.Command)
	}
}

func TestPatchVectorDecode(t *testing.T) {
	var p Patch
	if err := json.Unmarshal([]byte(`{"gravity": [0, -3.7, 0], "burst": 250}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Gravity == nil {
		t.Fatal("gravity nil")
	}
	if (*p.Gravity)[1] != -3.7 {
		t.Errorf("gravity.y = %v", (*p.Gravity)[1])
	}
	if p.Burst == nil || *p.Burst != 250 {
		t.Errorf("burst = %v", p.Burst)
	}
}

func TestPatchZeroValueStillApplies(t *testing.T) {
	// An explicit zero must be distinguishable from an absent field;
	// that is the whole point of the pointer fields.
	var p Patch
	if err := json.Unmarshal([]byte(`{"emission_rate": 0}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.EmissionRate == nil {
		t.Fatal("explicit zero decoded as absent")
	}
	if *p.EmissionRate != 0 {
		t.Errorf("emission_rate = %v", *p.EmissionRate)
	}
}
