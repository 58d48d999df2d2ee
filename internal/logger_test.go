package jsg_test

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	jsg "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Logger", func() {
	AfterEach(func() {
		jsg.SetLogger(nil)
	})

	It("can be replaced while it is in use", func() {
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(2)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for j := 0; j < 100; j++ {
					jsg.SetLogger(zap.NewNop())
				}
			}()
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for j := 0; j < 100; j++ {
					Expect(jsg.Logger()).ToNot(BeNil())
				}
			}()
		}
		wg.Wait()
	})

	It("logs lifecycle events to the configured logger", func() {
		core, logs := observer.New(zapcore.DebugLevel)
		jsg.SetLogger(zap.New(core))

		iso := isolate.New(isolate.NewConfig())
		ctx := iso.NewContext()
		defer ctx.Dispose()

		err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
			ref := jsg.Alloc(lock, Counter{})
			defer ref.Drop()
			_, err := jsg.Wrap(lock, ref)
			return err
		})
		Expect(err).To(BeNil())
		Expect(logs.FilterMessage("wrapped instance").Len()).To(Equal(1))

		iso.LowMemoryNotification()
		Expect(logs.FilterMessage("finalizing wrapped instance").Len()).To(Equal(1))
	})

	It("falls back to a no-op logger", func() {
		jsg.SetLogger(nil)
		Expect(jsg.Logger()).ToNot(BeNil())
	})
})
