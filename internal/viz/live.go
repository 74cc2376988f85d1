// Package viz renders the live Monte-Carlo sampling view and the
// shared terminal styles.
package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/astrokit/galmag/internal/sampler"
)

const sparklineCapacity = 120

// SampleMsg carries one completed Monte-Carlo draw into the live
// view.
type SampleMsg struct {
	Index  int
	Result sampler.LOSResult
}

// DoneMsg signals that all draws have completed.
type DoneMsg struct {
	Stats sampler.Stats
}

// ErrMsg aborts the live view with an error.
type ErrMsg struct {
	Err error
}

// Model is the bubbletea model of the live sampling view.
type Model struct {
	modelName string
	total     int

	done    int
	sumPar  float64
	sumPar2 float64
	recent  []float64

	finished bool
	stats    sampler.Stats
	err      error

	samples <-chan tea.Msg
}

// NewModel creates a live view fed by a channel of SampleMsg/DoneMsg
// values produced by the sampling goroutine.
func NewModel(modelName string, total int, samples <-chan tea.Msg) Model {
	return Model{
		modelName: modelName,
		total:     total,
		recent:    make([]float64, 0, sparklineCapacity),
		samples:   samples,
	}
}

// Err returns the error the sampling loop aborted with, if any.
func (m Model) Err() error {
	return m.err
}

func waitForSample(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSample(m.samples)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case SampleMsg:
		m.done++
		m.sumPar += msg.Result.Parallel
		m.sumPar2 += msg.Result.Parallel * msg.Result.Parallel
		if len(m.recent) == sparklineCapacity {
			m.recent = m.recent[1:]
		}
		m.recent = append(m.recent, msg.Result.Parallel)
		return m, waitForSample(m.samples)
	case DoneMsg:
		m.finished = true
		m.stats = msg.Stats
		return m, tea.Quit
	case ErrMsg:
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("sampling %s", m.modelName)))
	b.WriteString("\n")

	mean, std := 0.0, 0.0
	if m.done > 0 {
		mean = m.sumPar / float64(m.done)
		std = math.Sqrt(math.Max(0, m.sumPar2/float64(m.done)-mean*mean))
	}

	rows := []string{
		LabelStyle.Render("samples") + ValueStyle.Render(fmt.Sprintf("%d / %d", m.done, m.total)),
		LabelStyle.Render("mean B_par") + ValueStyle.Render(fmt.Sprintf("%.4e uG kpc", mean)),
		LabelStyle.Render("std B_par") + ValueStyle.Render(fmt.Sprintf("%.4e uG kpc", std)),
	}
	b.WriteString(StatsStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if len(m.recent) > 1 {
		graph := asciigraph.Plot(m.recent,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("B_par per draw"),
		)
		b.WriteString(GraphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.finished {
		b.WriteString(HelpStyle.Render("done"))
	} else {
		b.WriteString(HelpStyle.Render("q: quit"))
	}
	b.WriteString("\n")
	return b.String()
}
