package jsg_test

import (
	"errors"
	"fmt"
	"strconv"

	jsg "github.com/jerbob92/wazero-jsg/internal"
	"github.com/jerbob92/wazero-jsg/isolate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errors", func() {
	It("formats as name and message", func() {
		err := jsg.NewError(jsg.ExceptionRangeError, "out of range")
		Expect(err.Error()).To(Equal("RangeError: out of range"))
		Expect(jsg.DefaultError().Error()).To(Equal("Error: An unknown error occurred"))
	})

	It("converts integer parse errors to type errors", func() {
		_, parseErr := strconv.Atoi("abc")
		err := jsg.AsError(fmt.Errorf("reading count: %w", parseErr))
		Expect(err.Name).To(Equal(jsg.ExceptionTypeError))
		Expect(err.Message).To(Equal("Failed to parse integer: invalid syntax"))
	})

	It("keeps wrapped jsg errors", func() {
		original := jsg.NewError(jsg.ExceptionDataError, "bad data")
		Expect(jsg.AsError(fmt.Errorf("decoding: %w", original))).To(BeIdenticalTo(original))
	})

	It("turns other errors into plain errors", func() {
		err := jsg.AsError(errors.New("boom"))
		Expect(err.Name).To(Equal(jsg.ExceptionError))
		Expect(err.Message).To(Equal("boom"))
		Expect(jsg.AsError(nil).Message).To(Equal("An unknown error occurred"))
	})

	When("a callback throws", func() {
		It("raises the exception in script", func() {
			iso := isolate.New(isolate.NewConfig())
			ctx := iso.NewContext()
			defer ctx.Dispose()

			err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
				lock.Throw(jsg.NewError(jsg.ExceptionInvalidStateError, "closed"))
				return nil
			})
			Expect(err).To(MatchError("InvalidStateError: closed"))

			var exc *isolate.Exception
			Expect(errors.As(err, &exc)).To(BeTrue())
			Expect(exc.Type).To(Equal(jsg.ExceptionInvalidStateError))
		})
	})
})
