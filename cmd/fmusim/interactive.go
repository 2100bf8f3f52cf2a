package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/runtime"
	"github.com/wippyai/fmi-runtime/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type explorerState int

const (
	stateSelectVar explorerState = iota
	stateEditValue
	stateShowResult
)

type explorerModel struct {
	err      error
	rt       *runtime.Runtime
	module   *runtime.Module
	instance *runtime.Instance
	filename string
	vars     []schema.Variable
	selected int
	input    textinput.Model
	result   string
	simTime  float64
	stepSize float64
	state    explorerState
}

type fmuLoadedMsg struct {
	err  error
	rt   *runtime.Runtime
	mod  *runtime.Module
	inst *runtime.Instance
	step float64
}

type actionResultMsg struct {
	err    error
	result string
	time   float64
}

func newExplorerModel(filename string) *explorerModel {
	return &explorerModel{
		filename: filename,
		state:    stateSelectVar,
		stepSize: DefaultStepSize,
	}
}

func (m *explorerModel) Init() tea.Cmd {
	return m.loadFMU
}

func (m *explorerModel) loadFMU() tea.Msg {
	rt := runtime.New()
	mod, err := rt.Load(m.filename)
	if err != nil {
		rt.Close()
		return fmuLoadedMsg{err: err}
	}

	model := mod.Model()
	kind := fmi.CoSimulation
	if model.CoSimulation == nil {
		kind = fmi.ModelExchange
	}
	inst, err := mod.Instantiate("explorer", kind)
	if err == nil {
		if ierr := inst.EnterInitialization(runtime.InitConfig{}); ierr != nil {
			err = ierr
		} else if ierr := inst.ExitInitialization(); ierr != nil {
			err = ierr
		}
	}
	if err != nil {
		if inst != nil {
			inst.Free()
		}
		mod.Close()
		rt.Close()
		return fmuLoadedMsg{err: err}
	}

	step := DefaultStepSize
	if model.Experiment.StepSize != nil {
		step = *model.Experiment.StepSize
	}
	return fmuLoadedMsg{rt: rt, mod: mod, inst: inst, step: step}
}

func (m *explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateEditValue && msg.String() == "q" {
				break // typing into the value field
			}
			m.teardown()
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectVar && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectVar && m.selected < len(m.vars)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectVar:
				return m, m.readSelected
			case stateEditValue:
				return m, m.writeSelected
			case stateShowResult:
				m.state = stateSelectVar
				m.result = ""
				m.err = nil
			}

		case "e":
			if m.state == stateSelectVar && len(m.vars) > 0 {
				v := m.vars[m.selected]
				ti := textinput.New()
				ti.Prompt = v.Name + " = "
				ti.Placeholder = v.Start
				ti.Width = 30
				ti.Focus()
				m.input = ti
				m.state = stateEditValue
				return m, textinput.Blink
			}

		case "s":
			if m.state == stateSelectVar && m.instance != nil {
				return m, m.stepOnce
			}

		case "esc":
			if m.state != stateSelectVar {
				m.state = stateSelectVar
				m.result = ""
				m.err = nil
			}
		}

	case fmuLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.module = msg.mod
		m.instance = msg.inst
		m.vars = msg.mod.Model().Variables
		m.stepSize = msg.step
		m.simTime = msg.inst.Time()

	case actionResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.simTime = msg.time
		m.state = stateShowResult
	}

	if m.state == stateEditValue {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *explorerModel) teardown() {
	if m.instance != nil {
		m.instance.Free()
	}
	if m.module != nil {
		m.module.Close()
	}
	if m.rt != nil {
		m.rt.Close()
	}
}

func (m *explorerModel) readSelected() tea.Msg {
	v := m.vars[m.selected]
	value, err := m.instance.GetAny(v.ValueReference)
	if err != nil {
		return actionResultMsg{err: err, time: m.simTime}
	}
	return actionResultMsg{
		result: fmt.Sprintf("%s = %v", v.Name, value),
		time:   m.simTime,
	}
}

func (m *explorerModel) writeSelected() tea.Msg {
	v := m.vars[m.selected]
	raw := strings.TrimSpace(m.input.Value())

	var value any
	switch v.Type {
	case fmi.TagBoolean:
		value = raw == "true" || raw == "1"
	case fmi.TagString:
		value = raw
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return actionResultMsg{err: err, time: m.simTime}
		}
		value = f
	}
	if err := m.instance.SetAny(v.ValueReference, value); err != nil {
		return actionResultMsg{err: err, time: m.simTime}
	}
	return actionResultMsg{
		result: fmt.Sprintf("%s <- %v", v.Name, value),
		time:   m.simTime,
	}
}

func (m *explorerModel) stepOnce() tea.Msg {
	if m.instance.Kind() != fmi.CoSimulation {
		return actionResultMsg{
			err:  fmt.Errorf("stepping requires a co-simulation instance"),
			time: m.simTime,
		}
	}
	res, err := m.instance.DoStep(m.instance.Time(), m.stepSize)
	if err != nil {
		return actionResultMsg{err: err, time: m.instance.Time()}
	}
	return actionResultMsg{
		result: fmt.Sprintf("stepped to t=%g (status %s)", res.LastSuccessfulTime, res.Status),
		time:   res.LastSuccessfulTime,
	}
}

func (m *explorerModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if len(m.vars) == 0 {
		return "Loading FMU..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("FMU Explorer"))
	b.WriteString(fmt.Sprintf(" %s  t=%g\n\n", m.filename, m.simTime))

	switch m.state {
	case stateSelectVar:
		for i, v := range m.vars {
			line := fmt.Sprintf("%s: %s  %s", nameStyle.Render(v.Name),
				typeStyle.Render(v.Type.String()), helpStyle.Render(v.Causality))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter read • e edit • s step • q quit"))

	case stateEditValue:
		v := m.vars[m.selected]
		b.WriteString(fmt.Sprintf("Set %s (%s)\n\n", nameStyle.Render(v.Name), v.Type))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter write • esc back"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}
	return b.String()
}

func runExplore(filename string) error {
	p := tea.NewProgram(newExplorerModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
