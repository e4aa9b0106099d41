package dash

import (
	"runtime"
	"runtime/debug"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
)

// Memory defaults.
const (
	DefaultMemoryBudget   = 64 << 20
	DefaultMemoryLowWater = 30720
)

// MemoryGuard collects garbage when the heap gets close to the
// budget.
type MemoryGuard struct {
	Budget   uint64
	LowWater uint64

	// ReadHeap and Collect default to the runtime.
	ReadHeap func() uint64
	Collect  func()

	Collections int
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

func collect() {
	runtime.GC()
	debug.FreeOSMemory()
}

// Control implements Controller.
func (m *MemoryGuard) Control(fx.ControlContext) error {
	m.Check()
	return nil
}

// Check collects when the free budget is below the low-water mark and
// reports whether it did.
func (m *MemoryGuard) Check() bool {
	read, gc := m.ReadHeap, m.Collect
	if read == nil {
		read = heapAlloc
	}
	if gc == nil {
		gc = collect
	}
	before := read()
	if before+m.LowWater < m.Budget {
		glog.V(3).Infof("heap %d of %d bytes", before, m.Budget)
		return false
	}
	gc()
	m.Collections++
	after := read()
	glog.Warningf("heap %d of %d bytes, collected to %d", before, m.Budget, after)
	return true
}
