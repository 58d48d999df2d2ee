package jsg_test

import (
	"reflect"

	jsg "github.com/jerbob92/wazero-jsg/internal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Descriptors", func() {
	noop := func(*jsg.FunctionCallbackInfo) {}
	typ := reflect.TypeFor[Plain]()

	It("groups members by kind", func() {
		desc := jsg.DescriptorFor[Counter]()
		Expect(desc.Name).To(Equal("Counter"))
		Expect(desc.Type).To(Equal(reflect.TypeFor[Counter]()))
		Expect(desc.Constructor).ToNot(BeNil())
		Expect(desc.Methods).To(HaveLen(2))
		Expect(desc.Methods[0].Name).To(Equal("increment"))
		Expect(desc.Methods[1].Name).To(Equal("setLabel"))
		Expect(desc.StaticMethods).To(HaveLen(1))
		Expect(desc.StaticMethods[0].Name).To(Equal("describe"))
	})

	It("allows a type without members", func() {
		desc := jsg.DescriptorFor[Plain]()
		Expect(desc.Constructor).To(BeNil())
		Expect(desc.Methods).To(BeEmpty())
	})

	It("allows a method and a static method with the same name", func() {
		desc := jsg.BuildDescriptor(typ, "Plain", []jsg.Member{
			jsg.Method("run", noop),
			jsg.StaticMethod("run", noop),
		})
		Expect(desc.Methods).To(HaveLen(1))
		Expect(desc.StaticMethods).To(HaveLen(1))
	})

	DescribeTable("rejects malformed schemas",
		func(name string, members []jsg.Member) {
			Expect(func() {
				jsg.BuildDescriptor(typ, name, members)
			}).To(PanicWith(BeAssignableToTypeOf(&jsg.InvariantError{})))
		},
		Entry("empty class name", "", nil),
		Entry("property accessor", "Plain", []jsg.Member{jsg.Property("size", noop, noop)}),
		Entry("two constructors", "Plain", []jsg.Member{jsg.Constructor(noop), jsg.Constructor(noop)}),
		Entry("constructor without callback", "Plain", []jsg.Member{jsg.Constructor(nil)}),
		Entry("method without name", "Plain", []jsg.Member{jsg.Method("", noop)}),
		Entry("method without callback", "Plain", []jsg.Member{jsg.Method("run", nil)}),
		Entry("duplicate method", "Plain", []jsg.Member{jsg.Method("run", noop), jsg.Method("run", noop)}),
		Entry("duplicate static method", "Plain", []jsg.Member{jsg.StaticMethod("run", noop), jsg.StaticMethod("run", noop)}),
		Entry("unknown kind", "Plain", []jsg.Member{{Kind: jsg.MemberKind(42), Name: "x", Callback: noop}}),
	)
})
