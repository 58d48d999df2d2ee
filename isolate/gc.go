package isolate

import (
	"sort"

	"go.uber.org/zap"

	jsg "github.com/jerbob92/wazero-jsg/internal"
)

type Stats struct {
	Objects     int
	WeakHandles int
	Globals     int
	Contexts    int
	Collections int
	Finalized   int
	Swept       int
}

func (iso *Isolate) Stats() Stats {
	stats := iso.stats
	stats.Objects = len(iso.heap)
	stats.WeakHandles = len(iso.weak)
	stats.Globals = len(iso.globals)
	stats.Contexts = len(iso.contexts)
	return stats
}

// RequestGC runs a full collection. The execution lock must be held.
func (iso *Isolate) RequestGC() {
	iso.assertLocked("RequestGC")
	iso.collect()
}

// LowMemoryNotification takes the execution lock and runs a full collection.
func (iso *Isolate) LowMemoryNotification() {
	locker := iso.Lock()
	defer locker.Unlock()
	iso.collect()
}

func (iso *Isolate) maybeCollect() {
	if iso.config.gcThreshold == 0 || iso.inGC {
		return
	}
	if iso.allocatedSinceGC < iso.config.gcThreshold {
		return
	}
	iso.collect()
}

// collect marks from the roots, finalizes unreachable weak objects and sweeps
// everything that was unreachable when marking finished.
func (iso *Isolate) collect() {
	if iso.inGC {
		return
	}
	iso.inGC = true
	defer func() {
		iso.inGC = false
	}()

	marked := map[*Object]struct{}{}
	var work []*Object
	visit := func(v jsg.Value) {
		obj, ok := v.(*Object)
		if !ok || obj == nil {
			return
		}
		if _, ok := marked[obj]; ok {
			return
		}
		marked[obj] = struct{}{}
		work = append(work, obj)
	}

	for ctx := range iso.contexts {
		ctx.trace(visit)
	}
	for g := range iso.globals {
		visit(g.value)
	}
	for _, scope := range iso.scopes {
		for _, obj := range scope.objects {
			visit(obj)
		}
	}
	if iso.pending != nil {
		visit(iso.pending.Value)
	}
	if iso.roots != nil {
		for obj, handle := range iso.weak {
			if iso.roots.IsRoot(handle.address) {
				visit(obj)
			}
		}
	}

	for len(work) > 0 {
		obj := work[len(work)-1]
		work = work[:len(work)-1]
		obj.trace(visit)
	}

	var dead []*weakHandle
	for obj, handle := range iso.weak {
		if _, ok := marked[obj]; !ok {
			delete(iso.weak, obj)
			dead = append(dead, handle)
		}
	}
	sort.Slice(dead, func(i, j int) bool {
		return dead[i].target.id < dead[j].target.id
	})

	var garbage []*Object
	for obj := range iso.heap {
		if _, ok := marked[obj]; !ok {
			garbage = append(garbage, obj)
		}
	}

	for _, handle := range dead {
		handle.callback(handle.address)
	}

	for _, obj := range garbage {
		delete(iso.heap, obj)
		obj.collected = true
		obj.properties = nil
		obj.keys = nil
		obj.proto = nil
	}

	iso.allocatedSinceGC = 0
	iso.stats.Collections++
	iso.stats.Finalized += len(dead)
	iso.stats.Swept += len(garbage)

	iso.logger.Debug("collected garbage",
		zap.Int("marked", len(marked)),
		zap.Int("finalized", len(dead)),
		zap.Int("swept", len(garbage)),
		zap.Int("live", len(iso.heap)))
}
