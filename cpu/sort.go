package cpu

import (
	"math"

	"github.com/aiira-co/three-particles/sim"
)

// DeadKey matches the sort init kernel's sentinel for dead and padding
// slots.
const DeadKey = float32(math.MaxFloat32)

// InitKeys mirrors the key init kernel: negated squared camera distance for
// alive particles, DeadKey for everything else, identity order.
func InitKeys(st *State, camPos Vec3, t float32, padded uint32) ([]float32, []uint32) {
	keys := make([]float32, padded)
	order := make([]uint32, padded)
	for i := uint32(0); i < padded; i++ {
		order[i] = i
		if i >= st.Capacity || !st.Alive(i, t) {
			keys[i] = DeadKey
			continue
		}
		d := st.Pos[i].Sub(camPos)
		keys[i] = -d.Dot(d)
	}
	return keys, order
}

// RunPass mirrors one network pass: thread i pairs with i XOR j, lower index
// compares, block direction from bit k.
func RunPass(keys []float32, order []uint32, p sim.SortPass) {
	padded := uint32(len(keys))
	for i := uint32(0); i < padded; i++ {
		ixj := i ^ p.J
		if ixj <= i || ixj >= padded {
			continue
		}
		asc := i&p.K == 0
		a, b := keys[i], keys[ixj]
		doSwap := a < b
		if asc {
			doSwap = a > b
		}
		if doSwap {
			keys[i], keys[ixj] = b, a
			order[i], order[ixj] = order[ixj], order[i]
		}
	}
}

// Sort runs the full plan in-place.
func Sort(keys []float32, order []uint32) {
	for _, p := range sim.BitonicPlan(uint32(len(keys))) {
		RunPass(keys, order, p)
	}
}
