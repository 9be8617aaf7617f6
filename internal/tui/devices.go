package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"specviz/internal/audio"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#800080")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B070D0")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// screen identifies which picker screen is active.
type screen int

const (
	screenDevices screen = iota
	screenRates
)

// deviceLines is the rendered height of one device entry, used to keep
// the selection inside the viewport.
const deviceLines = 4

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

var pickerKeys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Back:   key.NewBinding(key.WithKeys("esc")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// Selection is the picker outcome. Confirmed is false when the user
// quit without choosing a device.
type Selection struct {
	Device     audio.Device
	SampleRate float64
	Confirmed  bool
}

// pickerModel is the Bubble Tea model behind the interactive device
// picker. The first screen selects an input-capable device, the second
// a sample rate; enter on the second screen confirms.
type pickerModel struct {
	devices  []audio.Device
	selected int
	viewport viewport.Model
	ready    bool
	err      error
	screen   screen

	rates     []float64
	rateIndex int
	confirmed bool
}

func newPickerModel() pickerModel {
	return pickerModel{}
}

func (m pickerModel) Init() tea.Cmd {
	return fetchDevices
}

// fetchDevices enumerates host devices off the UI goroutine.
func fetchDevices() tea.Msg {
	devices, err := audio.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()
		return m, nil

	case devicesMsg:
		m.devices = msg.devices
		m.refresh()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m pickerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		return m, tea.Quit
	}
	if key.Matches(msg, pickerKeys.Quit) {
		return m, tea.Quit
	}

	switch m.screen {
	case screenDevices:
		switch {
		case key.Matches(msg, pickerKeys.Up):
			if m.selected > 0 {
				m.selected--
				m.refresh()
			}

		case key.Matches(msg, pickerKeys.Down):
			if m.selected < len(m.devices)-1 {
				m.selected++
				m.refresh()
			}

		case key.Matches(msg, pickerKeys.Select):
			// Output-only devices cannot feed the capture stream.
			if len(m.devices) > 0 && m.devices[m.selected].MaxInputChannels > 0 {
				m.screen = screenRates
				m.rates, m.rateIndex = sampleRateOptions(m.devices[m.selected].DefaultSampleRate)
				m.refresh()
			}
		}

	case screenRates:
		switch {
		case key.Matches(msg, pickerKeys.Back):
			m.screen = screenDevices
			m.refresh()

		case key.Matches(msg, pickerKeys.Up):
			if m.rateIndex > 0 {
				m.rateIndex--
				m.refresh()
			}

		case key.Matches(msg, pickerKeys.Down):
			if m.rateIndex < len(m.rates)-1 {
				m.rateIndex++
				m.refresh()
			}

		case key.Matches(msg, pickerKeys.Select):
			m.confirmed = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *pickerModel) refresh() {
	if !m.ready {
		return
	}
	switch m.screen {
	case screenDevices:
		m.viewport.SetContent(m.renderDevices())
		m.scrollToSelection()
	case screenRates:
		m.viewport.SetContent(m.renderRates())
		m.viewport.SetYOffset(0)
	}
}

func (m *pickerModel) scrollToSelection() {
	top := m.selected * deviceLines
	if top < m.viewport.YOffset {
		m.viewport.SetYOffset(top)
		return
	}
	if bottom := top + deviceLines; bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

func (m pickerModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.screen == screenDevices {
		title = titleStyle.Render("Audio Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Select Input • q: Quit")
	} else {
		title = titleStyle.Render("Sample Rate: " + m.devices[m.selected].Name)
		help = infoStyle.Render("↑/↓: Change • Enter: Confirm • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m pickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		entry := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, device.TypeLabel())
		entry += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		entry += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		switch {
		case i == m.selected:
			entry = highlightStyle.Render(entry)
		case device.MaxInputChannels == 0:
			entry = dimStyle.Render(entry)
		}

		sb.WriteString(entry)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m pickerModel) renderRates() string {
	device := m.devices[m.selected]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configure input: %s\n\n", device.Name))
	sb.WriteString("Sample rate:\n")

	for i, rate := range m.rates {
		cursor := " "
		if i == m.rateIndex {
			cursor = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz", cursor, rate)
		if rate == device.DefaultSampleRate {
			line += " (device default)"
		}
		if i == m.rateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// sampleRateOptions returns the selectable rates for a device and the
// index of its default rate. The default is inserted when it is not one
// of the common rates.
func sampleRateOptions(def float64) ([]float64, int) {
	rates := []float64{44100, 48000, 88200, 96000}

	found := false
	for _, r := range rates {
		if r == def {
			found = true
			break
		}
	}
	if !found && def > 0 {
		rates = append(rates, def)
		sort.Float64s(rates)
	}

	for i, r := range rates {
		if r == def {
			return rates, i
		}
	}
	return rates, 0
}

func (m pickerModel) selection() Selection {
	if !m.confirmed || len(m.devices) == 0 {
		return Selection{}
	}
	return Selection{
		Device:     m.devices[m.selected],
		SampleRate: m.rates[m.rateIndex],
		Confirmed:  true,
	}
}

// PickDevice runs the interactive device picker and reports what the
// user chose. PortAudio must be initialized before calling.
func PickDevice() (Selection, error) {
	p := tea.NewProgram(newPickerModel(), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{}, err
	}
	if m, ok := final.(pickerModel); ok {
		return m.selection(), nil
	}
	return Selection{}, nil
}
