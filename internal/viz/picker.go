package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Launcher builds a viewer for the named preset.
type Launcher func(name string) (Model, error)

// Picker is a preset menu; Enter replaces it with the launched viewer.
type Picker struct {
	names  []string
	info   map[string]string
	cursor int
	launch Launcher
	err    error
}

func NewPicker(names []string, info map[string]string, launch Launcher) Picker {
	return Picker{names: names, info: info, launch: launch}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.names) == 0 {
			return p, nil
		}
		m, err := p.launch(p.names[p.cursor])
		if err != nil {
			p.err = err
			return p, nil
		}
		return m, m.Init()
	}
	return p, nil
}

func (p Picker) Selected() string {
	if len(p.names) == 0 {
		return ""
	}
	return p.names[p.cursor]
}

func (p Picker) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("FEMSIM") + "\n")
	for i, name := range p.names {
		line := fmt.Sprintf("%-10s %s", name, p.info[name])
		if i == p.cursor {
			s.WriteString(StatusRunning.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	if p.err != nil {
		s.WriteString("\n" + errorStyle.Render(p.err.Error()) + "\n")
	}
	s.WriteString(hintStyle.Render("↑↓ select  enter run  q quit"))
	return s.String()
}
