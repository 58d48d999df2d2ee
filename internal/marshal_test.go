package jsg_test

import (
	"math"

	jsg "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Types", func() {
	var iso *isolate.Isolate
	var ctx *isolate.Context

	BeforeEach(func() {
		iso = isolate.New(isolate.NewConfig())
		ctx = iso.NewContext()
	})

	AfterEach(func() {
		ctx.Dispose()
	})

	run := func(fn func(lock *jsg.Lock)) {
		err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
			fn(lock)
			return nil
		})
		Expect(err).To(BeNil())
	}

	It("round trips primitives", func() {
		run(func(lock *jsg.Lock) {
			Expect(jsg.String.Unwrap(lock, jsg.String.Wrap(lock, "héllo"))).To(Equal("héllo"))
			Expect(jsg.Boolean.Unwrap(lock, jsg.Boolean.Wrap(lock, true))).To(BeTrue())
			Expect(jsg.Number.Unwrap(lock, jsg.Number.Wrap(lock, 1.5))).To(Equal(1.5))
		})
	})

	It("coerces when unwrapping", func() {
		run(func(lock *jsg.Lock) {
			Expect(jsg.String.Unwrap(lock, iso.NewNumber(12))).To(Equal("12"))
			Expect(jsg.String.Unwrap(lock, iso.NewBoolean(false))).To(Equal("false"))
			Expect(jsg.Number.Unwrap(lock, iso.NewString(" 42 "))).To(Equal(float64(42)))
			Expect(math.IsNaN(jsg.Number.Unwrap(lock, iso.NewString("nope")))).To(BeTrue())
			Expect(jsg.Boolean.Unwrap(lock, iso.NewString(""))).To(BeFalse())
			Expect(jsg.Boolean.Unwrap(lock, iso.NewObject())).To(BeTrue())
		})
	})

	It("only reports exact values as exact", func() {
		Expect(jsg.String.IsExact(iso.NewString("x"))).To(BeTrue())
		Expect(jsg.String.IsExact(iso.NewNumber(1))).To(BeFalse())
		Expect(jsg.Boolean.IsExact(iso.NewBoolean(true))).To(BeTrue())
		Expect(jsg.Number.IsExact(iso.NewString("1"))).To(BeFalse())
		Expect(jsg.Number.ClassName()).To(Equal("number"))
	})

	It("rejects coercion through NonCoercible", func() {
		run(func(lock *jsg.Lock) {
			value, err := jsg.UnwrapNonCoercible(lock, jsg.Boolean, iso.NewBoolean(true))
			Expect(err).To(BeNil())
			Expect(value.Value).To(BeTrue())

			_, err = jsg.UnwrapNonCoercible(lock, jsg.Boolean, iso.Null())
			Expect(err).To(MatchError("TypeError: Expected a boolean value but got object"))

			_, err = jsg.UnwrapNonCoercible(lock, jsg.Number, iso.NewString("1"))
			Expect(err).To(MatchError("TypeError: Expected a number value but got string"))
		})
	})

	It("returns results through HandleResult", func() {
		err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
			info := jsg.NewFunctionCallbackInfo(lock, iso.Undefined(), nil, nil)
			jsg.HandleResult(info, jsg.Number, 3, nil)
			Expect(info.Threw()).To(BeFalse())
			Expect(iso.ToNumber(info.ReturnValue())).To(Equal(float64(3)))
			Expect(info.Arg(2).IsUndefined()).To(BeTrue())
			Expect(info.IsConstructCall()).To(BeFalse())

			failed := jsg.NewFunctionCallbackInfo(lock, iso.Undefined(), nil, nil)
			jsg.HandleResult(failed, jsg.Number, 0, jsg.NewError(jsg.ExceptionRangeError, "too big"))
			Expect(failed.Threw()).To(BeTrue())
			Expect(failed.ReturnValue()).To(BeNil())
			Expect(iso.HasPendingException()).To(BeTrue())
			return nil
		})
		Expect(err).To(MatchError("RangeError: too big"))
	})
})
