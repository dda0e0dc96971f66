package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custos/custoscript"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

// entry is one line of scrollback: what was typed and what came back.
type entry struct {
	input  string
	output string
	isErr  bool
}

// replKeys are the bindings shown in the help line.
type replKeys struct {
	Prev     key.Binding
	Next     key.Binding
	Complete key.Binding
	Clear    key.Binding
	Quit     key.Binding
}

func (k replKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Clear, k.Quit}
}

func (k replKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Prev, k.Next}, {k.Complete, k.Clear, k.Quit}}
}

var bindings = replKeys{
	Prev:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous input")),
	Next:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next input")),
	Complete: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete")),
	Clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
}

// commands lists the colon commands for :help.
var commands = [][2]string{
	{":vars", "list globals"},
	{":dis SRC", "show bytecode for SRC"},
	{":reset", "drop all globals"},
	{":clear", "clear scrollback"},
	{":quit", "exit"},
}

type replModel struct {
	input    textinput.Model
	help     help.Model
	session  *session
	history  []entry
	inputs   []string // submitted lines, for up/down recall
	recall   int      // index into inputs, -1 when editing a fresh line
	width    int
	height   int
	quitting bool
	ready    bool
}

func newREPLModel(args []string) replModel {
	ti := textinput.New()
	ti.Prompt = "custos> "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "expression, statement or :help"
	ti.CharLimit = 2000
	ti.Focus()

	return replModel{
		input:   ti,
		help:    help.New(),
		session: newSession(args),
		recall:  -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, bindings.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, bindings.Clear):
			m.history = nil
			return m, nil
		case key.Matches(msg, bindings.Prev):
			m.recallInput(-1)
			return m, nil
		case key.Matches(msg, bindings.Next):
			m.recallInput(1)
			return m, nil
		case key.Matches(msg, bindings.Complete):
			return m.handleAutocomplete(), nil
		case msg.Type == tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// recallInput moves through previously submitted lines. Stepping past the
// newest one returns to an empty line.
func (m *replModel) recallInput(step int) {
	if len(m.inputs) == 0 {
		return
	}
	switch {
	case m.recall == -1 && step < 0:
		m.recall = len(m.inputs) - 1
	case m.recall == -1:
		return
	default:
		m.recall = min(max(m.recall+step, 0), len(m.inputs))
	}
	if m.recall == len(m.inputs) {
		m.recall = -1
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.inputs[m.recall])
	}
	m.input.CursorEnd()
}

func (m replModel) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.recall = -1
	if line == "" {
		return m, nil
	}
	if strings.HasPrefix(line, ":") {
		return m.handleCommand(line)
	}

	m.inputs = append(m.inputs, line)
	out, err := m.session.eval(line)
	if err != nil {
		m.history = append(m.history, entry{input: line, output: err.Error(), isErr: true})
	} else {
		m.history = append(m.history, entry{input: line, output: out})
	}
	return m, nil
}

func (m replModel) handleCommand(line string) (replModel, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h":
		m.help.ShowAll = !m.help.ShowAll
	case ":clear", ":c":
		m.history = nil
	case ":vars", ":v":
		m.history = append(m.history, entry{input: line, output: m.listGlobals()})
	case ":reset", ":r":
		m.session.reset()
		m.history = append(m.history, entry{input: line, output: "globals dropped"})
	case ":dis", ":d":
		out, isErr := disassemble(arg)
		m.history = append(m.history, entry{input: line, output: out, isErr: isErr})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, entry{
			input:  line,
			output: fmt.Sprintf("unknown command %s (try :help)", name),
			isErr:  true,
		})
	}
	return m, nil
}

func (m replModel) listGlobals() string {
	names := m.session.names()
	if len(names) == 0 {
		return "no globals"
	}
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + " = " + m.session.env[name].Repr()
	}
	return strings.Join(lines, "\n")
}

// disassemble compiles src and returns its bytecode listing.
func disassemble(src string) (string, bool) {
	prog, err := custoscript.Compile(src)
	if err != nil {
		return err.Error(), true
	}
	return strings.TrimRight(prog.Disassemble(), "\n"), false
}

// handleAutocomplete completes the identifier under the cursor. A unique
// match is inserted; several are listed in the scrollback.
func (m replModel) handleAutocomplete() replModel {
	value := m.input.Value()
	start := strings.LastIndexFunc(value, func(r rune) bool { return !isIdentRune(r) }) + 1
	word := value[start:]
	if word == "" {
		return m
	}

	switch found := m.session.complete(word); len(found) {
	case 0:
	case 1:
		m.input.SetValue(value[:start] + found[0])
		m.input.CursorEnd()
	default:
		m.history = append(m.history, entry{output: strings.Join(found, ", ")})
	}
	return m
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (m replModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("custoscript") + dimStyle.Render(" "+custoscript.Version) + "\n\n")

	var lines []string
	for _, e := range m.history {
		if e.input != "" {
			lines = append(lines, dimStyle.Render("> ")+e.input)
		}
		style := valueStyle
		if e.isErr {
			style = failStyle
		}
		lines = append(lines, strings.Split(style.Render(e.output), "\n")...)
	}

	footer := m.help.View(bindings)
	if m.help.ShowAll {
		var cmds []string
		for _, c := range commands {
			cmds = append(cmds, fmt.Sprintf("%-10s %s", c[0], dimStyle.Render(c[1])))
		}
		footer = strings.Join(cmds, "\n") + "\n" + footer
	}

	// Keep the newest scrollback that fits above the prompt and footer.
	room := max(m.height-4-lipgloss.Height(footer), 1)
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	for _, l := range lines {
		b.WriteString(l + "\n")
	}

	b.WriteString("\n" + m.input.View() + "\n\n" + footer)
	return b.String()
}

func runREPL(args []string) error {
	_, err := tea.NewProgram(newREPLModel(args), tea.WithAltScreen()).Run()
	return err
}
