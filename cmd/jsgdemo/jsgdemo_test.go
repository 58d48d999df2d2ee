package main

import (
	"bytes"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	jsg "github.com/jerbob92/wazero-jsg"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func drops(s scenario) []int {
	var counts []int
	for _, st := range s.steps {
		counts = append(counts, st.drops)
	}
	return counts
}

var _ = Describe("Scenarios", func() {
	It("reports the destructor counts of every step", func() {
		results, err := runScenarios(zap.NewNop())
		Expect(err).To(BeNil())
		Expect(results).To(HaveLen(3))

		Expect(drops(results[0])).To(Equal([]int{0, 1}))
		Expect(drops(results[1])).To(Equal([]int{0, 0, 1}))
		Expect(drops(results[2])).To(Equal([]int{0, 1}))
		Expect(results[1].steps[0].description).To(Equal("wrap and clone (count 2)"))

		out := &bytes.Buffer{}
		printScenarios(out, results)
		Expect(out.String()).To(ContainSubstring("drops=1"))
		Expect(out.String()).To(ContainSubstring("A: allocate and drop"))
	})
})

var _ = Describe("Session", func() {
	var s *session

	BeforeEach(func() {
		s = newSession(zap.NewNop())
	})

	AfterEach(func() {
		s.close()
	})

	It("destroys an unwrapped probe on the last drop", func() {
		Expect(s.alloc()).To(Succeed())
		Expect(s.clone(0)).To(Succeed())
		Expect(s.entries[0].first.Count()).To(Equal(int64(2)))

		Expect(s.drop(0)).To(Succeed())
		Expect(s.log.total).To(Equal(0))
		Expect(s.drop(0)).To(Succeed())
		Expect(s.log.total).To(Equal(1))
		Expect(s.entries[0].state()).To(Equal(jsg.StateCollected))

		Expect(s.drop(0)).To(MatchError("probe 1 has no refs left"))
	})

	It("leaves a wrapped probe to the collector", func() {
		Expect(s.alloc()).To(Succeed())
		Expect(s.wrap(0)).To(Succeed())
		Expect(s.wrap(0)).To(MatchError("probe 1 is already wrapped"))

		Expect(s.drop(0)).To(Succeed())
		Expect(s.entries[0].state()).To(Equal(jsg.StateWrappedWeak))
		Expect(s.log.total).To(Equal(0))

		s.gc()
		Expect(s.log.total).To(Equal(1))
		Expect(s.entries[0].state()).To(Equal(jsg.StateCollected))
		Expect(s.revive(0)).To(MatchError("probe 1 was collected"))
	})

	It("keeps pinned wrappers and revives weak probes", func() {
		Expect(s.alloc()).To(Succeed())
		Expect(s.pin(0)).To(MatchError("probe 1 is not wrapped"))
		Expect(s.wrap(0)).To(Succeed())
		Expect(s.pin(0)).To(Succeed())
		Expect(s.drop(0)).To(Succeed())

		s.gc()
		Expect(s.log.total).To(Equal(0))
		Expect(s.entries[0].state()).To(Equal(jsg.StateWrappedWeak))

		Expect(s.revive(0)).To(Succeed())
		Expect(s.entries[0].state()).To(Equal(jsg.StateWrappedStrong))

		Expect(s.pin(0)).To(Succeed())
		s.gc()
		Expect(s.log.total).To(Equal(0))

		Expect(s.drop(0)).To(Succeed())
		s.gc()
		Expect(s.log.total).To(Equal(1))
	})

	It("drives the session from key presses", func() {
		m := newInspectModel(s)
		press := func(k string) {
			m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}

		press("a")
		press("w")
		Expect(m.err).To(BeNil())
		Expect(m.View()).To(ContainSubstring("wrapped-strong"))

		press("d")
		press("g")
		Expect(m.status).To(Equal("collected, 1 probe(s) finalized"))
		Expect(m.View()).To(ContainSubstring("collected"))

		press("w")
		Expect(m.err).To(MatchError("probe 1 is already wrapped"))
	})
})
