// Package telemetry measures the host side of the engine: per-frame scope
// timings, CSV frame logs, and end-of-run summaries. Everything here is CPU
// time; GPU timing would need timestamp queries, which the engine avoids
// along with every other readback.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler accumulates named scope timings and counters for one frame.
// Scopes report in first-use order so the display stays stable.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = time.Now()
	for _, n := range p.Order {
		if n == name {
			return
		}
	}
	p.Order = append(p.Order, name)
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] += time.Since(start)
	}
}

// Scope times a block: defer p.Scope("frame")().
func (p *Profiler) Scope(name string) func() {
	p.BeginScope(name)
	return func() { p.EndScope(name) }
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// ScopeMs returns a scope's accumulated time in milliseconds.
func (p *Profiler) ScopeMs(name string) float64 {
	return float64(p.Scopes[name].Microseconds()) / 1000.0
}

// Reset zeroes the timings for the next frame, keeping the display order.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

func (p *Profiler) String() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, p.ScopeMs(name)))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
