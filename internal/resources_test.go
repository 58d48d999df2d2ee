package jsg_test

import (
	jsg "github.com/jerbob92/wazero-jsg/internal"
)

// drops counts destroyed Counter instances.
var drops int

type Counter struct {
	Value float64
	Label string
}

func (c *Counter) Drop() {
	drops++
}

func (Counter) ClassName() string {
	return "Counter"
}

func (Counter) Members() []jsg.Member {
	return []jsg.Member{
		jsg.Constructor(func(info *jsg.FunctionCallbackInfo) {
			start := 0.0
			if info.Len() > 0 {
				start = jsg.Number.Unwrap(info.Lock(), info.Arg(0))
			}
			jsg.ReturnNew(info, Counter{Value: start})
		}),
		jsg.Method("increment", func(info *jsg.FunctionCallbackInfo) {
			counter, err := jsg.This[Counter](info)
			if err != nil {
				info.Throw(err)
				return
			}
			counter.Value++
			jsg.HandleResult(info, jsg.Number, counter.Value, nil)
		}),
		jsg.Method("setLabel", func(info *jsg.FunctionCallbackInfo) {
			counter, err := jsg.This[Counter](info)
			if err != nil {
				info.Throw(err)
				return
			}
			label, err := jsg.UnwrapNonCoercible(info.Lock(), jsg.String, info.Arg(0))
			if err != nil {
				info.Throw(err)
				return
			}
			counter.Label = label.Value
		}),
		jsg.StaticMethod("describe", func(info *jsg.FunctionCallbackInfo) {
			jsg.HandleResult(info, jsg.String, "a counter", nil)
		}),
	}
}

// Plain has no constructor and no destructor.
type Plain struct{}

func (Plain) ClassName() string { return "Plain" }

func (Plain) Members() []jsg.Member { return nil }

type WithProperty struct{}

func (WithProperty) ClassName() string { return "WithProperty" }

func (WithProperty) Members() []jsg.Member {
	noop := func(*jsg.FunctionCallbackInfo) {}
	return []jsg.Member{
		jsg.Property("size", noop, noop),
	}
}
