package isolate_test

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	jsg "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type rootSet map[uintptr]bool

func (r rootSet) IsRoot(address uintptr) bool {
	return r[address]
}

var _ = Describe("Isolate", func() {
	var iso *isolate.Isolate
	var ctx *isolate.Context
	var finalized []uintptr

	record := func(address uintptr) {
		finalized = append(finalized, address)
	}

	BeforeEach(func() {
		finalized = nil
		iso = isolate.New(isolate.NewConfig())
		ctx = iso.NewContext()
	})

	AfterEach(func() {
		ctx.Dispose()
	})

	makeWeak := func(lock *jsg.Lock, address uintptr) *isolate.Object {
		obj := lock.NewObject().(*isolate.Object)
		Expect(iso.MakeWeak(obj, address, record)).To(Succeed())
		return obj
	}

	When("a weak object becomes unreachable", func() {
		It("runs its finalizer once", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				makeWeak(lock, 16)
				return nil
			})
			Expect(err).To(BeNil())
			Expect(iso.Stats().WeakHandles).To(Equal(1))

			iso.LowMemoryNotification()
			Expect(finalized).To(Equal([]uintptr{16}))
			Expect(iso.Stats().WeakHandles).To(Equal(0))

			iso.LowMemoryNotification()
			Expect(finalized).To(HaveLen(1))
		})

		It("runs finalizers in allocation order", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				makeWeak(lock, 48)
				makeWeak(lock, 32)
				return nil
			})
			Expect(err).To(BeNil())

			iso.LowMemoryNotification()
			Expect(finalized).To(Equal([]uintptr{48, 32}))
		})
	})

	When("a weak object is reachable", func() {
		It("is kept through the global object", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				holder := lock.NewObject().(*isolate.Object)
				holder.Set("target", makeWeak(lock, 16))
				ctx.Global().Set("holder", holder)
				return nil
			})
			Expect(err).To(BeNil())

			iso.LowMemoryNotification()
			Expect(finalized).To(BeEmpty())

			ctx.Global().Delete("holder")
			iso.LowMemoryNotification()
			Expect(finalized).To(Equal([]uintptr{16}))
		})

		It("is kept through a persistent handle", func() {
			var global *isolate.Global
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				global = iso.NewGlobal(makeWeak(lock, 16))
				return nil
			})
			Expect(err).To(BeNil())

			iso.LowMemoryNotification()
			Expect(finalized).To(BeEmpty())
			Expect(global.Get().IsObject()).To(BeTrue())

			locker := iso.Lock()
			global.Reset()
			iso.RequestGC()
			locker.Unlock()

			Expect(global.IsEmpty()).To(BeTrue())
			Expect(finalized).To(Equal([]uintptr{16}))
		})

		It("is kept while its handle scope is open", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				makeWeak(lock, 16)

				inner := iso.OpenHandleScope()
				makeWeak(lock, 32)
				inner.Close()

				iso.RequestGC()
				Expect(finalized).To(Equal([]uintptr{32}))
				return nil
			})
			Expect(err).To(BeNil())

			iso.LowMemoryNotification()
			Expect(finalized).To(Equal([]uintptr{32, 16}))
		})

		It("survives an inner scope when escaped", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				inner := iso.OpenHandleScope()
				inner.Escape(makeWeak(lock, 16))
				inner.Close()

				iso.RequestGC()
				Expect(finalized).To(BeEmpty())
				return nil
			})
			Expect(err).To(BeNil())
		})

		It("is kept while the embedder claims it", func() {
			roots := rootSet{16: true}
			iso.SetEmbedderRootsHandler(roots)

			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				makeWeak(lock, 16)
				return nil
			})
			Expect(err).To(BeNil())

			iso.LowMemoryNotification()
			Expect(finalized).To(BeEmpty())

			roots[16] = false
			iso.LowMemoryNotification()
			Expect(finalized).To(Equal([]uintptr{16}))
		})
	})

	When("a finalizer allocates", func() {
		It("does not sweep the new objects", func() {
			var created *isolate.Object
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				obj := lock.NewObject()
				return iso.MakeWeak(obj, 16, func(uintptr) {
					created = iso.NewObject().(*isolate.Object)
					ctx.Global().Set("created", created)
				})
			})
			Expect(err).To(BeNil())

			iso.LowMemoryNotification()
			Expect(created).ToNot(BeNil())
			Expect(created.IsCollected()).To(BeFalse())
			Expect(ctx.Global().Get("created")).To(BeIdenticalTo(created))
		})
	})

	It("rejects a second weak handle for the same object", func() {
		err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
			obj := makeWeak(lock, 16)
			Expect(iso.MakeWeak(obj, 32, record)).To(MatchError(ContainSubstring("already weak")))
			Expect(iso.MakeWeak(iso.NewNumber(1), 32, record)).To(MatchError(ContainSubstring("not an object")))
			return nil
		})
		Expect(err).To(BeNil())
	})

	It("only stores wrapper addresses in template instances", func() {
		err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
			obj := lock.NewObject()
			Expect(iso.SetWrapperAddress(obj, 16)).To(MatchError(ContainSubstring("no internal field")))
			_, ok := iso.WrapperAddress(obj)
			Expect(ok).To(BeFalse())
			return nil
		})
		Expect(err).To(BeNil())
	})

	When("a gc threshold is configured", func() {
		It("collects on its own", func() {
			iso = isolate.New(isolate.NewConfig().WithGCThreshold(8))
			other := iso.NewContext()
			defer other.Dispose()

			err := iso.RunInContext(other, func(lock *jsg.Lock) error {
				makeWeak(lock, 16)
				return nil
			})
			Expect(err).To(BeNil())
			Expect(finalized).To(BeEmpty())

			err = iso.RunInContext(other, func(lock *jsg.Lock) error {
				for i := 0; i < 16; i++ {
					lock.NewObject()
				}
				return nil
			})
			Expect(err).To(BeNil())
			Expect(finalized).To(Equal([]uintptr{16}))
			Expect(iso.Stats().Collections).To(BeNumerically(">", 0))
		})
	})

	It("logs collections", func() {
		core, logs := observer.New(zapcore.DebugLevel)
		iso = isolate.New(isolate.NewConfig().WithLogger(zap.New(core)))
		iso.LowMemoryNotification()

		Expect(logs.FilterMessage("collected garbage").Len()).To(Equal(1))
	})

	It("reports statistics", func() {
		err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
			makeWeak(lock, 16)
			lock.NewObject()
			return nil
		})
		Expect(err).To(BeNil())

		iso.LowMemoryNotification()
		stats := iso.Stats()
		Expect(stats.Collections).To(Equal(1))
		Expect(stats.Finalized).To(Equal(1))
		Expect(stats.Swept).To(Equal(2))
		Expect(stats.Contexts).To(Equal(1))
	})

	When("the lock is misused", func() {
		It("panics on a double unlock", func() {
			locker := iso.Lock()
			locker.Unlock()
			Expect(func() { locker.Unlock() }).To(Panic())
		})

		It("panics when collecting without the lock", func() {
			Expect(iso.IsLocked()).To(BeFalse())
			Expect(func() { iso.RequestGC() }).To(Panic())
		})

		It("reports the lock state", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				Expect(iso.IsLocked()).To(BeTrue())
				Expect(lock.Isolate()).To(BeIdenticalTo(iso))
				return nil
			})
			Expect(err).To(BeNil())
			Expect(iso.IsLocked()).To(BeFalse())
		})
	})
})
