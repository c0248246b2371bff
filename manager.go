package particles

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aiira-co/three-particles/gpu"
)

// Manager runs multiple particle systems on one shared GPU context. Systems
// are addressed by opaque handles and advanced together in creation order,
// so simulations that feed each other behave the same run to run.
//
// Like System, a Manager is single-goroutine.
type Manager struct {
	ctx *gpu.Context
	log Logger

	systems map[string]*System
	order   []string
}

func NewManager(ctx *gpu.Context, log Logger) *Manager {
	if log == nil {
		log = NewNopLogger()
	}
	return &Manager{
		ctx:     ctx,
		log:     log,
		systems: make(map[string]*System),
	}
}

// CreateSystem builds a system from cfg (nil means defaults) and returns its
// handle alongside the system itself.
func (m *Manager) CreateSystem(cfg *Config) (string, *System, error) {
	s, err := NewSystem(m.ctx, cfg, m.log)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	m.systems[id] = s
	m.order = append(m.order, id)
	m.log.Debugf("system %s created (capacity %d)", id, s.Config().Capacity)
	return id, s, nil
}

// System looks a system up by handle.
func (m *Manager) System(id string) (*System, bool) {
	s, ok := m.systems[id]
	return s, ok
}

// DestroySystem releases a system and forgets its handle.
func (m *Manager) DestroySystem(id string) bool {
	s, ok := m.systems[id]
	if !ok {
		return false
	}
	s.Release()
	delete(m.systems, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Count returns the number of live systems.
func (m *Manager) Count() int { return len(m.systems) }

// Frame advances every playing system once, in creation order. Per-system
// errors are joined; one broken system does not stall the others.
func (m *Manager) Frame() error {
	var errs []error
	for _, id := range m.order {
		if err := m.systems[id].Frame(); err != nil {
			errs = append(errs, fmt.Errorf("system %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Each visits every system in creation order.
func (m *Manager) Each(fn func(id string, s *System)) {
	for _, id := range m.order {
		fn(id, m.systems[id])
	}
}

// Stats snapshots every system keyed by handle.
func (m *Manager) Stats() map[string]Stats {
	out := make(map[string]Stats, len(m.systems))
	for id, s := range m.systems {
		out[id] = s.Stats()
	}
	return out
}

// Release destroys every system. The shared context is the caller's and is
// not touched.
func (m *Manager) Release() {
	for _, id := range m.order {
		m.systems[id].Release()
	}
	m.systems = make(map[string]*System)
	m.order = nil
}
