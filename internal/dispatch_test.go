package jsg_test

import (
	jsg "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Member dispatch", func() {
	var iso *isolate.Isolate
	var ctx *isolate.Context

	BeforeEach(func() {
		drops = 0
		iso = isolate.New(isolate.NewConfig())
		ctx = iso.NewContext()
	})

	AfterEach(func() {
		ctx.Dispose()
	})

	constructor := func(lock *jsg.Lock) *isolate.Object {
		fn, err := ctx.FunctionFor(jsg.GetResources[Counter](lock.Realm()).Constructor())
		Expect(err).To(BeNil())
		return fn
	}

	When("a resource is constructed from script", func() {
		It("runs the constructor and methods on the new instance", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				obj, err := iso.Construct(constructor(lock), iso.NewNumber(5))
				Expect(err).To(BeNil())
				Expect(obj.TypeOf()).To(Equal("object"))

				res, err := iso.CallMethod(obj.(*isolate.Object), "increment")
				Expect(err).To(BeNil())
				Expect(iso.ToNumber(res)).To(Equal(float64(6)))

				ref, err := jsg.UnwrapRef[Counter](lock, obj)
				Expect(err).To(BeNil())
				Expect(ref.Get().Value).To(Equal(float64(6)))
				ref.Drop()
				return nil
			})
			Expect(err).To(BeNil())
			Expect(drops).To(Equal(0))

			iso.LowMemoryNotification()
			Expect(drops).To(Equal(1))
		})

		It("requires new", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				_, err := iso.Call(constructor(lock), iso.Undefined())
				Expect(err).To(MatchError("TypeError: Class constructor Counter cannot be invoked without 'new'"))
				return nil
			})
			Expect(err).To(BeNil())
		})

		It("rejects types without a constructor", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				fn, err := ctx.FunctionFor(jsg.GetResources[Plain](lock.Realm()).Constructor())
				Expect(err).To(BeNil())
				_, err = iso.Construct(fn)
				Expect(err).To(MatchError("TypeError: Illegal constructor"))
				return nil
			})
			Expect(err).To(BeNil())
		})
	})

	When("a method is called on the wrong receiver", func() {
		It("throws an illegal invocation error", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				obj, err := iso.Construct(constructor(lock))
				Expect(err).To(BeNil())
				increment := obj.(*isolate.Object).Get("increment")

				_, err = iso.Call(increment, iso.NewObject())
				Expect(err).To(MatchError("TypeError: Illegal invocation"))

				_, err = iso.Call(increment, iso.NewNumber(1))
				Expect(err).To(MatchError("TypeError: Illegal invocation"))
				return nil
			})
			Expect(err).To(BeNil())
		})
	})

	When("a static method is called", func() {
		It("does not need an instance", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				fn := constructor(lock)
				res, err := iso.CallMethod(fn, "describe")
				Expect(err).To(BeNil())
				Expect(res.IsString()).To(BeTrue())
				Expect(iso.ToString(res)).To(Equal("a counter"))
				return nil
			})
			Expect(err).To(BeNil())
		})
	})

	When("an argument must not be coerced", func() {
		It("accepts exact values", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				obj, err := iso.Construct(constructor(lock))
				Expect(err).To(BeNil())

				_, err = iso.CallMethod(obj.(*isolate.Object), "setLabel", iso.NewString("hits"))
				Expect(err).To(BeNil())

				ref, err := jsg.UnwrapRef[Counter](lock, obj)
				Expect(err).To(BeNil())
				defer ref.Drop()
				Expect(ref.Get().Label).To(Equal("hits"))
				return nil
			})
			Expect(err).To(BeNil())
		})

		It("throws a type error for other values", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				obj, err := iso.Construct(constructor(lock))
				Expect(err).To(BeNil())

				_, err = iso.CallMethod(obj.(*isolate.Object), "setLabel", iso.NewNumber(5))
				Expect(err).To(MatchError("TypeError: Expected a string value but got number"))

				_, err = iso.CallMethod(obj.(*isolate.Object), "setLabel")
				Expect(err).To(MatchError("TypeError: Expected a string value but got undefined"))
				return nil
			})
			Expect(err).To(BeNil())
		})
	})

	When("a wrapper of another type is unwrapped", func() {
		It("returns a type error", func() {
			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				ref := jsg.Alloc(lock, Plain{})
				defer ref.Drop()
				obj, err := jsg.Wrap(lock, ref)
				Expect(err).To(BeNil())

				_, err = jsg.UnwrapRef[Counter](lock, obj)
				Expect(err).To(MatchError("TypeError: Expected a Counter value but got object"))
				return nil
			})
			Expect(err).To(BeNil())
		})
	})
})
