package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	jsg "github.com/jerbob92/wazero-jsg"
	"github.com/jerbob92/wazero-jsg/isolate"
)

var (
	scenarioStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	stepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	countStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
)

type step struct {
	description string
	drops       int
}

type scenario struct {
	name  string
	steps []step
}

// runScenarios walks through the three basic lifecycles of a resource and
// records the destructor count after every step.
func runScenarios(logger *zap.Logger) ([]scenario, error) {
	iso := isolate.New(isolate.NewConfig().WithLogger(logger))
	ctx := iso.NewContext()
	defer ctx.Dispose()

	var results []scenario

	// A: never wrapped, the last drop destroys.
	log := newDropLog()
	a := scenario{name: "A: allocate and drop"}
	err := iso.RunInContext(ctx, func(lock *jsg.Lock) error {
		ref := jsg.Alloc(lock, probe{id: 1, log: log})
		a.steps = append(a.steps, step{"allocate", log.total})
		ref.Drop()
		a.steps = append(a.steps, step{"drop", log.total})
		return nil
	})
	if err != nil {
		return nil, err
	}
	results = append(results, a)

	// B: wrapped, all refs dropped, the collector destroys.
	log = newDropLog()
	b := scenario{name: "B: wrap, clone, drop both, collect"}
	err = iso.RunInContext(ctx, func(lock *jsg.Lock) error {
		ref := jsg.Alloc(lock, probe{id: 2, log: log})
		if _, err := jsg.Wrap(lock, ref); err != nil {
			return err
		}
		clone := ref.Clone()
		b.steps = append(b.steps, step{fmt.Sprintf("wrap and clone (count %d)", ref.Count()), log.total})
		ref.Drop()
		clone.Drop()
		b.steps = append(b.steps, step{"drop both refs", log.total})
		return nil
	})
	if err != nil {
		return nil, err
	}
	iso.LowMemoryNotification()
	b.steps = append(b.steps, step{"collect", log.total})
	results = append(results, b)

	// C: wrapped and still referenced, the collector leaves it alone.
	log = newDropLog()
	c := scenario{name: "C: wrap, collect while referenced"}
	var kept *jsg.Ref[probe]
	err = iso.RunInContext(ctx, func(lock *jsg.Lock) error {
		kept = jsg.Alloc(lock, probe{id: 3, log: log})
		_, err := jsg.Wrap(lock, kept)
		return err
	})
	if err != nil {
		return nil, err
	}
	iso.LowMemoryNotification()
	c.steps = append(c.steps, step{"collect with a live ref", log.total})
	kept.Drop()
	iso.LowMemoryNotification()
	c.steps = append(c.steps, step{"drop and collect", log.total})
	results = append(results, c)

	return results, nil
}

func printScenarios(w io.Writer, scenarios []scenario) {
	for _, s := range scenarios {
		fmt.Fprintln(w, scenarioStyle.Render(s.name))
		for _, st := range s.steps {
			fmt.Fprintf(w, "  %s %s\n", stepStyle.Render(fmt.Sprintf("%-28s", st.description)), countStyle.Render(fmt.Sprintf("drops=%d", st.drops)))
		}
	}
}
