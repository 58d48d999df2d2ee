package jsg

import (
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// FunctionExporter configures the functions of the "jsg" host module.
type FunctionExporter interface {
	// ExportFunctions builds functions to export with a wazero.HostModuleBuilder
	// named "jsg".
	ExportFunctions(wazero.HostModuleBuilder) error
}

type functionExporter struct {
	engine *engine
}

var (
	i32 = api.ValueTypeI32
	f64 = api.ValueTypeF64
)

// ExportFunctions implements FunctionExporter.ExportFunctions
//
// Besides the value functions, every registered resource class contributes
// "<Class>.constructor", "<Class>.prototype.<method>" and "<Class>.<static>".
// Arguments are pushed with jsg_push_arg before the call; a call that throws
// returns 0 and leaves the exception for jsg_exception.
func (e functionExporter) ExportFunctions(b wazero.HostModuleBuilder) error {
	b.NewFunctionBuilder().
		WithName("jsg_undefined").
		WithResultNames("handle").
		WithGoModuleFunction(valueUndefined, []api.ValueType{}, []api.ValueType{i32}).
		Export("jsg_undefined")

	b.NewFunctionBuilder().
		WithName("jsg_null").
		WithResultNames("handle").
		WithGoModuleFunction(valueNull, []api.ValueType{}, []api.ValueType{i32}).
		Export("jsg_null")

	b.NewFunctionBuilder().
		WithName("jsg_boolean").
		WithParameterNames("value").
		WithResultNames("handle").
		WithGoModuleFunction(valueBoolean, []api.ValueType{i32}, []api.ValueType{i32}).
		Export("jsg_boolean")

	b.NewFunctionBuilder().
		WithName("jsg_to_boolean").
		WithParameterNames("handle").
		WithResultNames("value").
		WithGoModuleFunction(valueToBoolean, []api.ValueType{i32}, []api.ValueType{i32}).
		Export("jsg_to_boolean")

	b.NewFunctionBuilder().
		WithName("jsg_number").
		WithParameterNames("value").
		WithResultNames("handle").
		WithGoModuleFunction(valueNumber, []api.ValueType{f64}, []api.ValueType{i32}).
		Export("jsg_number")

	b.NewFunctionBuilder().
		WithName("jsg_to_number").
		WithParameterNames("handle").
		WithResultNames("value").
		WithGoModuleFunction(valueToNumber, []api.ValueType{i32}, []api.ValueType{f64}).
		Export("jsg_to_number")

	b.NewFunctionBuilder().
		WithName("jsg_string_new").
		WithParameterNames("ptr", "len").
		WithResultNames("handle").
		WithGoModuleFunction(stringNew, []api.ValueType{i32, i32}, []api.ValueType{i32}).
		Export("jsg_string_new")

	b.NewFunctionBuilder().
		WithName("jsg_string_len").
		WithParameterNames("handle").
		WithResultNames("len").
		WithGoModuleFunction(stringLen, []api.ValueType{i32}, []api.ValueType{i32}).
		Export("jsg_string_len")

	b.NewFunctionBuilder().
		WithName("jsg_string_read").
		WithParameterNames("handle", "ptr", "cap").
		WithResultNames("written").
		WithGoModuleFunction(stringRead, []api.ValueType{i32, i32, i32}, []api.ValueType{i32}).
		Export("jsg_string_read")

	b.NewFunctionBuilder().
		WithName("jsg_incref").
		WithParameterNames("handle").
		WithGoModuleFunction(handleIncref, []api.ValueType{i32}, []api.ValueType{}).
		Export("jsg_incref")

	b.NewFunctionBuilder().
		WithName("jsg_decref").
		WithParameterNames("handle").
		WithGoModuleFunction(handleDecref, []api.ValueType{i32}, []api.ValueType{}).
		Export("jsg_decref")

	b.NewFunctionBuilder().
		WithName("jsg_push_arg").
		WithParameterNames("handle").
		WithGoModuleFunction(pushArg, []api.ValueType{i32}, []api.ValueType{}).
		Export("jsg_push_arg")

	b.NewFunctionBuilder().
		WithName("jsg_exception").
		WithResultNames("handle").
		WithGoModuleFunction(takeException, []api.ValueType{}, []api.ValueType{i32}).
		Export("jsg_exception")

	b.NewFunctionBuilder().
		WithName("jsg_gc").
		WithGoModuleFunction(requestGC, []api.ValueType{}, []api.ValueType{}).
		Export("jsg_gc")

	for _, class := range e.engine.classes {
		desc := class.descriptor

		if desc.Constructor != nil {
			name := desc.Name + ".constructor"
			b.NewFunctionBuilder().
				WithName(name).
				WithResultNames("handle").
				WithGoModuleFunction(classConstructor(class), []api.ValueType{}, []api.ValueType{i32}).
				Export(name)
		}

		for _, method := range desc.Methods {
			name := desc.Name + ".prototype." + method.Name
			b.NewFunctionBuilder().
				WithName(name).
				WithParameterNames("this").
				WithResultNames("handle").
				WithGoModuleFunction(classMethod(class, method.Name), []api.ValueType{i32}, []api.ValueType{i32}).
				Export(name)
		}

		for _, method := range desc.StaticMethods {
			name := desc.Name + "." + method.Name
			b.NewFunctionBuilder().
				WithName(name).
				WithResultNames("handle").
				WithGoModuleFunction(classStaticMethod(class, method.Name), []api.ValueType{}, []api.ValueType{i32}).
				Export(name)
		}
	}

	return nil
}
