package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/blacktop/imagine/internal/catalog"
	"github.com/blacktop/imagine/internal/dataurl"
	"github.com/blacktop/imagine/internal/download"
	"github.com/blacktop/imagine/internal/history"
	"github.com/blacktop/imagine/internal/studio"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skratchdot/open-golang/open"
)

const kittyChunkSize = 4096

var (
	accentColor = lipgloss.Color("205")
	dimColor    = lipgloss.Color("240")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginBottom(1)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	focusedStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(dimColor)
	helpStyle     = lipgloss.NewStyle().Foreground(dimColor).Italic(true).MarginTop(1)
	errorBarStyle = lipgloss.NewStyle().Background(lipgloss.Color("88")).Foreground(lipgloss.Color("15")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
)

type model struct {
	ctx         context.Context
	machine     *studio.Machine
	config      *tuiConfig
	textInput   textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	width       int
	height      int
	focus       focus
	pending     bool // a generate/upscale cmd is dispatched but not finished
	showHistory bool
	cursor      int
	status      string
}

func newModel(ctx context.Context, machine *studio.Machine, c *tuiConfig) model {
	st := machine.State()

	ti := textinput.New()
	ti.Placeholder = "Describe the image you want to create"
	ti.SetValue(st.Prompt)
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)

	return model{
		ctx:       ctx,
		machine:   machine,
		config:    c,
		textInput: ti,
		viewport:  viewport.New(0, 0),
		spinner:   s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) busy() bool {
	return m.pending || m.machine.State().Busy()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = int(float64(m.width)*0.4) - 4
		m.viewport.Width = m.width
		m.viewport.Height = m.height - 4
		m.refreshHistory()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showHistory {
			return m.updateHistory(msg)
		}
		return m.updateMain(msg)
	case generatedMsg:
		m.pending = false
		m.status = ""
		m.refreshHistory()
		return m, nil
	case upscaledMsg:
		m.pending = false
		m.status = "Upscaled image " + fmt.Sprint(msg.record.ID)
		m.refreshHistory()
		return m, nil
	case opFailedMsg:
		// a rejected duplicate leaves the original operation in flight
		if !errors.Is(msg.err, studio.ErrOperationInProgress) {
			m.pending = false
		}
		return m, nil
	case savedMsg:
		m.status = "Image saved: " + msg.path
		return m, nil
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.machine.DismissError()
		m.status = ""
		return m, nil
	case "enter":
		if m.busy() {
			return m, nil
		}
		m.machine.SetPrompt(m.textInput.Value())
		m.pending = true
		return m, tea.Batch(m.generate(), m.spinner.Tick)
	case "tab", "shift+tab":
		step := focus(1)
		if msg.String() == "shift+tab" {
			step = focusCount - 1
		}
		m.focus = (m.focus + step) % focusCount
		if m.focus == focusPrompt {
			return m, m.textInput.Focus()
		}
		m.textInput.Blur()
		return m, nil
	case "left", "right":
		if m.focus == focusStyle || m.focus == focusAspect {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.cycleSelection(delta)
			return m, nil
		}
	case "ctrl+u":
		if latest, ok := m.machine.Latest(); ok && m.canUpscale(latest) {
			m.pending = true
			return m, tea.Batch(m.upscale(latest), m.spinner.Tick)
		}
		return m, nil
	case "ctrl+s":
		if latest, ok := m.machine.Latest(); ok {
			return m, m.save(latest)
		}
		return m, nil
	case "ctrl+r":
		m.showHistory = true
		m.cursor = 0
		m.refreshHistory()
		return m, nil
	case "q":
		if m.focus != focusPrompt {
			return m, tea.Quit
		}
	}

	if m.focus != focusPrompt || m.busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.machine.SetPrompt(m.textInput.Value())
	return m, cmd
}

func (m model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	records := m.machine.History()
	selected := func() (history.Record, bool) {
		if m.cursor < 0 || m.cursor >= len(records) {
			return history.Record{}, false
		}
		return records[m.cursor], true
	}

	switch msg.String() {
	case "esc", "q", "ctrl+r":
		m.showHistory = false
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(records)-1 {
			m.cursor++
		}
	case "enter":
		if rec, ok := selected(); ok {
			m.machine.ReusePrompt(rec)
			m.textInput.SetValue(rec.Prompt)
			m.showHistory = false
			m.focus = focusPrompt
			return m, m.textInput.Focus()
		}
	case "u":
		if rec, ok := selected(); ok && m.canUpscale(rec) {
			m.pending = true
			m.showHistory = false
			return m, tea.Batch(m.upscale(rec), m.spinner.Tick)
		}
	case "s":
		if rec, ok := selected(); ok {
			return m, m.save(rec)
		}
	case "y":
		if rec, ok := selected(); ok {
			return m, copyPrompt(rec)
		}
	case "x":
		m.machine.ClearHistory()
		m.cursor = 0
	}
	m.refreshHistory()
	return m, nil
}

// canUpscale reports whether the upscale keys apply to rec.
func (m model) canUpscale(rec history.Record) bool {
	return !rec.IsUpscaled && !m.busy()
}

// cycleSelection moves the focused selector by delta, wrapping around.
func (m *model) cycleSelection(delta int) {
	st := m.machine.State()
	switch m.focus {
	case focusStyle:
		ids := catalog.StyleIDs()
		m.machine.SelectStyle(ids[wrap(indexOf(ids, st.Style)+delta, len(ids))])
	case focusAspect:
		ids := catalog.AspectRatioIDs()
		m.machine.SelectAspectRatio(ids[wrap(indexOf(ids, st.AspectRatio)+delta, len(ids))])
	}
}

func (m model) generate() tea.Cmd {
	return func() tea.Msg {
		rec, err := m.machine.SubmitPrompt(m.ctx)
		if err != nil {
			return opFailedMsg{err}
		}
		return generatedMsg{rec}
	}
}

func (m model) upscale(rec history.Record) tea.Cmd {
	return func() tea.Msg {
		updated, err := m.machine.RequestUpscale(m.ctx, rec)
		if err != nil {
			return opFailedMsg{err}
		}
		return upscaledMsg{updated}
	}
}

func (m model) save(rec history.Record) tea.Cmd {
	return func() tea.Msg {
		path, err := download.Save(m.config.OutputFolder, rec, time.Now())
		if err != nil {
			logger.Error("Error saving image", "err", err)
			return statusMsg("Could not save image: " + err.Error())
		}
		logger.Debug("Image saved", "path", path)
		if m.config.OpenAfterSave {
			if err := open.Start(path); err != nil {
				logger.Warn("Could not open image", "path", path, "err", err)
			}
		}
		return savedMsg{path}
	}
}

func copyPrompt(rec history.Record) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(rec.FullPrompt); err != nil {
			logger.Warn("Clipboard unavailable", "err", err)
			return statusMsg("Clipboard unavailable")
		}
		return statusMsg("Copied full prompt")
	}
}

func (m *model) refreshHistory() {
	records := m.machine.History()
	if m.cursor >= len(records) {
		m.cursor = max(len(records)-1, 0)
	}
	var b strings.Builder
	if len(records) == 0 {
		b.WriteString(dimStyle.Render("Your generated images will appear here."))
	}
	for i, rec := range records {
		line := historyLine(rec)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if bottom := m.viewport.YOffset + m.viewport.Height; m.cursor >= bottom {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func historyLine(rec history.Record) string {
	flag := ""
	if rec.IsUpscaled {
		flag = " [upscaled]"
	}
	return fmt.Sprintf("%s  %s · %s · %s%s",
		rec.CreatedAt.Local().Format("2006-01-02 15:04"),
		rec.Prompt, rec.Style, rec.AspectRatio, flag)
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var body string
	if m.showHistory {
		body = m.historyView()
	} else if m.busy() {
		body = m.spinnerPopup()
	} else {
		leftWidth := int(float64(m.width) * 0.4)
		rightWidth := m.width - leftWidth
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.leftPanelView(leftWidth), m.rightPanelView(rightWidth))
	}

	if msg := m.machine.State().Err; msg != "" {
		bar := errorBarStyle.Render(msg + "  (esc to dismiss)")
		return lipgloss.JoinVertical(lipgloss.Left, body, bar)
	}
	return body
}

func (m model) spinnerPopup() string {
	label := "Generating image..."
	if m.machine.State().Upscaling {
		label = "Upscaling image..."
	}

	style := lipgloss.NewStyle().
		Width(40).
		Height(3).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Align(lipgloss.Center, lipgloss.Center)

	content := fmt.Sprintf("%s %s", m.spinner.View(), label)
	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, style.Render(content))
}

func (m model) leftPanelView(width int) string {
	st := m.machine.State()
	style := lipgloss.NewStyle().
		Width(width).
		Height(m.height-1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		Padding(0, 1)

	styleName := st.Style
	if preset, ok := catalog.LookupStyle(st.Style); ok {
		styleName = preset.Name
	}
	ratioName := st.AspectRatio
	if opt, ok := catalog.LookupAspectRatio(st.AspectRatio); ok {
		ratioName = opt.Name
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Imagen AI Studio"))
	b.WriteString("\n")
	b.WriteString(m.label("Prompt", focusPrompt) + "\n" + m.textInput.View() + "\n\n")
	b.WriteString(m.label("Style", focusStyle) + "  < " + styleName + " >\n")
	b.WriteString(m.label("Aspect", focusAspect) + " < " + ratioName + " >\n")
	if m.status != "" {
		b.WriteString("\n" + dimStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("enter generate · tab focus · ←/→ select\nctrl+u upscale · ctrl+s save · ctrl+r history\nctrl+c quit"))

	return style.Render(b.String())
}

func (m model) label(name string, f focus) string {
	if m.focus == f {
		return focusedStyle.Render(name + ":")
	}
	return labelStyle.Render(name + ":")
}

func (m model) rightPanelView(width int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(m.height-1).
		Padding(0, 1)

	latest, ok := m.machine.Latest()
	if !ok {
		placeholder := lipgloss.NewStyle().
			Foreground(dimColor).
			Align(lipgloss.Center, lipgloss.Center).
			Width(width).
			Height(m.height - 1)
		return placeholder.Render("Image will be displayed here")
	}

	caption := latest.Prompt
	if latest.IsUpscaled {
		caption += "  " + focusedStyle.Render("[upscaled]")
	}
	img, err := dataurl.Parse(latest.ImageURL)
	if err != nil {
		return style.Render(caption + "\n\n" + dimStyle.Render("Image data is unreadable."))
	}
	return style.Render(caption + "\n\n" + m.displayImage(img.Data))
}

func (m model) historyView() string {
	header := titleStyle.Render(fmt.Sprintf("History (%d)", len(m.machine.History())))
	help := helpStyle.Render("↑/↓ move · enter reuse · u upscale · s save · y copy prompt · x clear · esc close")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), help)
}

func (m model) displayImage(image []byte) string {
	if m.config.DisplayProtocol == "kitty" {
		return displayKittyImage(image)
	}
	return displayITermImage(image)
}

// displayKittyImage sends the PNG in chunks, as the kitty graphics protocol
// caps each escape payload at 4096 bytes.
func displayKittyImage(image []byte) string {
	encoded := base64.StdEncoding.EncodeToString(image)
	var b strings.Builder
	for i := 0; i < len(encoded); i += kittyChunkSize {
		end := min(i+kittyChunkSize, len(encoded))
		more := 1
		if end == len(encoded) {
			more = 0
		}
		if i == 0 {
			fmt.Fprintf(&b, "\033_Ga=T,f=100,m=%d;%s\033\\", more, encoded[i:end])
		} else {
			fmt.Fprintf(&b, "\033_Gm=%d;%s\033\\", more, encoded[i:end])
		}
	}
	return b.String()
}

func displayITermImage(image []byte) string {
	encoded := base64.StdEncoding.EncodeToString(image)
	return fmt.Sprintf("\033]1337;File=inline=1;size=%d;width=auto;height=auto:%s\a\n", len(image), encoded)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return 0
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
