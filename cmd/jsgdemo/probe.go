package main

import (
	jsg "github.com/jerbob92/wazero-jsg"
)

// dropLog records which probes were destroyed.
type dropLog struct {
	total int
	byID  map[int]int
}

func newDropLog() *dropLog {
	return &dropLog{byID: map[int]int{}}
}

func (l *dropLog) record(id int) {
	l.total++
	l.byID[id]++
}

// probe is the resource the demo allocates. It only reports its destruction.
type probe struct {
	id  int
	log *dropLog
}

func (p *probe) Drop() {
	p.log.record(p.id)
}

func (probe) ClassName() string {
	return "Probe"
}

func (probe) Members() []jsg.Member {
	return []jsg.Member{
		jsg.Method("id", func(info *jsg.FunctionCallbackInfo) {
			p, err := jsg.This[probe](info)
			if err != nil {
				info.Throw(err)
				return
			}
			jsg.HandleResult(info, jsg.Number, float64(p.id), nil)
		}),
	}
}
