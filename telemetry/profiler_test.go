package telemetry

import (
	"strings"
	"testing"
)

func TestProfilerOrderStable(t *testing.T) {
	p := NewProfiler()
	p.BeginScope("compute")
	p.EndScope("compute")
	p.BeginScope("render")
	p.EndScope("render")
	p.BeginScope("compute")
	p.EndScope("compute")

	if len(p.Order) != 2 {
		t.Fatalf("order has %d entries, want 2", len(p.Order))
	}
	if p.Order[0] != "compute" || p.Order[1] != "render" {
		t.Errorf("order = %v", p.Order)
	}
}

func TestProfilerAccumulates(t *testing.T) {
	p := NewProfiler()
	for i := 0; i < 3; i++ {
		done := p.Scope("frame")
		done()
	}
	if p.Scopes["frame"] < 0 {
		t.Errorf("negative accumulated time %v", p.Scopes["frame"])
	}
	if _, ok := p.Scopes["frame"]; !ok {
		t.Error("scope never recorded")
	}
}

func TestProfilerEndWithoutBegin(t *testing.T) {
	p := NewProfiler()
	p.EndScope("ghost")
	if _, ok := p.Scopes["ghost"]; ok {
		t.Error("unmatched EndScope recorded a timing")
	}
}

func TestProfilerResetKeepsOrder(t *testing.T) {
	p := NewProfiler()
	p.BeginScope("a")
	p.EndScope("a")
	p.BeginScope("b")
	p.EndScope("b")
	p.SetCount("particles", 4096)

	p.Reset()

	if len(p.Order) != 2 {
		t.Errorf("reset dropped order: %v", p.Order)
	}
	if p.Scopes["a"] != 0 || p.Scopes["b"] != 0 {
		t.Errorf("reset kept timings: %v %v", p.Scopes["a"], p.Scopes["b"])
	}
	if p.Counts["particles"] != 4096 {
		t.Errorf("reset cleared counts: %d", p.Counts["particles"])
	}
}

func TestProfilerString(t *testing.T) {
	p := NewProfiler()
	p.BeginScope("sort")
	p.EndScope("sort")
	p.SetCount("alive", 128)

	s := p.String()
	if !strings.Contains(s, "sort") {
		t.Errorf("report missing scope: %q", s)
	}
	if !strings.Contains(s, "alive") || !strings.Contains(s, "128") {
		t.Errorf("report missing count: %q", s)
	}
}
