package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/saravenpi/milkyway/internal/app"
	"github.com/saravenpi/milkyway/internal/composer"
	"github.com/saravenpi/milkyway/internal/conversation"
	"github.com/saravenpi/milkyway/internal/media"
	"github.com/saravenpi/milkyway/internal/models"
)

type roomMode int

const (
	modeBrowse roomMode = iota
	modeCompose
	modeAttach
	modeRecording
)

type actionDoneMsg struct {
	err error
}

type recordingStartedMsg struct {
	err error
}

type logoutDoneMsg struct {
	err error
}

type counterpartMsg struct {
	profile *models.UserProfile
	err     error
}

type RoomModel struct {
	app          *app.App
	ctx          context.Context
	messages     []models.ChatMessage
	counterpart  *models.UserProfile
	viewport     viewport.Model
	textarea     textarea.Model
	pathInput    textinput.Model
	mode         roomMode
	loading      bool
	sending      bool
	err          error
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewRoomModel(ctx context.Context, a *app.App) RoomModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	pi := textinput.New()
	pi.Placeholder = "/path/to/photo.jpg"
	pi.CharLimit = 1024
	pi.Width = 60

	m := RoomModel{
		app:          a,
		ctx:          ctx,
		messages:     a.Sync.Snapshot(),
		viewport:     vp,
		textarea:     ta,
		pathInput:    pi,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.loading = len(m.messages) == 0
	m.updateViewportContent()
	m.viewport.GotoBottom()
	return m
}

func (m RoomModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if len(m.messages) > 0 {
		cmds = append(cmds, m.fetchCounterpartCmd(m.messages))
	}
	return tea.Batch(cmds...)
}

func (m RoomModel) fetchCounterpartCmd(messages []models.ChatMessage) tea.Cmd {
	return func() tea.Msg {
		p, err := m.app.Counterpart(m.ctx, messages)
		return counterpartMsg{profile: p, err: err}
	}
}

func (m RoomModel) sendTextCmd() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.app.SendText(m.ctx)}
	}
}

func (m RoomModel) attachCmd(path string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.app.AttachFile(m.ctx, path)}
	}
}

// logoutCmd runs off the event loop; the session change that follows is
// what switches the screen.
func (m RoomModel) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{err: m.app.Logout()}
	}
}

func (m RoomModel) startRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		return recordingStartedMsg{err: m.app.StartRecording(m.ctx)}
	}
}

func (m RoomModel) stopRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.app.StopRecording(m.ctx)}
	}
}

func (m *RoomModel) layout() {
	headerHeight := 5
	helpHeight := 2
	available := m.windowHeight - headerHeight - helpHeight

	m.viewport.Width = m.windowWidth - 4
	switch m.mode {
	case modeCompose:
		m.viewport.Height = available - 5
		m.textarea.SetWidth(m.windowWidth - 4)
	case modeAttach, modeRecording:
		m.viewport.Height = available - 3
	default:
		m.viewport.Height = available
	}
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
}

func (m RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.layout()
		m.updateViewportContent()
		return m, nil

	case snapshotMsg:
		m.loading = false
		atBottom := m.viewport.AtBottom() || len(m.messages) == 0
		m.messages = msg.messages
		m.updateViewportContent()
		if atBottom {
			m.viewport.GotoBottom()
		}
		if m.counterpart == nil {
			return m, m.fetchCounterpartCmd(m.messages)
		}
		return m, nil

	case resumedMsg:
		m.updateViewportContent()
		return m, m.fetchCounterpartCmd(m.messages)

	case counterpartMsg:
		if msg.err == nil && msg.profile != nil {
			m.counterpart = msg.profile
			m.updateViewportContent()
		}
		return m, nil

	case actionDoneMsg:
		m.sending = false
		if msg.err == nil {
			m.err = nil
			m.textarea.Reset()
			m.pathInput.Reset()
		}
		if m.app.Composer.State() == composer.Composing {
			m.mode = modeCompose
			m.textarea.Focus()
		} else {
			m.mode = modeBrowse
			m.textarea.Reset()
			m.textarea.Blur()
			m.pathInput.Blur()
		}
		m.layout()
		return m, nil

	case logoutDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case recordingStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.mode = modeBrowse
		} else {
			m.err = nil
			m.mode = modeRecording
		}
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.sending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m RoomModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}

	switch m.mode {
	case modeCompose:
		switch msg.String() {
		case "esc":
			m.mode = modeBrowse
			m.textarea.Reset()
			m.textarea.Blur()
			_ = m.app.Composer.SetText("")
			m.layout()
			return m, nil
		case "ctrl+s":
			if strings.TrimSpace(m.textarea.Value()) == "" {
				return m, nil
			}
			m.sending = true
			m.textarea.Blur()
			return m, tea.Batch(m.spinner.Tick, m.sendTextCmd())
		default:
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			_ = m.app.Composer.SetText(m.textarea.Value())
			return m, cmd
		}

	case modeAttach:
		switch msg.String() {
		case "esc":
			m.mode = modeBrowse
			m.pathInput.Reset()
			m.pathInput.Blur()
			m.layout()
			return m, nil
		case "enter":
			path := strings.TrimSpace(m.pathInput.Value())
			if path == "" {
				return m, nil
			}
			m.sending = true
			return m, tea.Batch(m.spinner.Tick, m.attachCmd(path))
		default:
			var cmd tea.Cmd
			m.pathInput, cmd = m.pathInput.Update(msg)
			return m, cmd
		}

	case modeRecording:
		switch msg.String() {
		case "esc":
			m.app.Composer.CancelRecording()
			m.mode = modeBrowse
			m.layout()
			return m, nil
		case "v", "enter":
			m.sending = true
			return m, tea.Batch(m.spinner.Tick, m.stopRecordingCmd())
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.app.Composer.Close()
		return m, tea.Quit

	case "n", "c":
		m.mode = modeCompose
		m.textarea.Focus()
		m.layout()
		return m, textarea.Blink

	case "a":
		m.mode = modeAttach
		m.pathInput.Focus()
		m.layout()
		return m, textinput.Blink

	case "v":
		return m, m.startRecordingCmd()

	case "r":
		m.app.Sync.Invalidate()
		return m, nil

	case "g":
		gallery := NewGalleryModel(m.ctx, m.app)
		return resize(gallery, m.windowWidth, m.windowHeight), gallery.Init()

	case "p":
		profile := NewProfileModel(m.ctx, m.app)
		return resize(profile, m.windowWidth, m.windowHeight), profile.Init()

	case "L":
		return m, m.logoutCmd()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m *RoomModel) senderName(id models.Identity) string {
	if m.counterpart != nil && m.counterpart.ID == id {
		return m.counterpart.Username
	}
	if s := string(id); len(s) > 8 {
		return s[:8]
	} else if s != "" {
		return s
	}
	return "Unknown"
}

func (m *RoomModel) updateViewportContent() {
	if m.loading && len(m.messages) == 0 {
		return
	}

	var content strings.Builder
	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}
	right := lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth)

	for i, item := range m.app.Room(m.messages) {
		if i > 0 {
			content.WriteString("\n")
		}

		switch item.Kind {
		case conversation.ItemEmpty:
			content.WriteString(normalStyle.Render("  "+item.Label) + "\n")
			continue
		case conversation.ItemSeparator:
			content.WriteString(separatorStyle.Width(wrapWidth).Render("── "+item.Label+" ──") + "\n")
			continue
		}

		message := item.Message
		timestamp := message.Time(nil).Format("3:04 PM")

		if item.Own {
			header := messageHeaderStyle.Render(fmt.Sprintf("You • %s", timestamp))
			content.WriteString(right.Render(header) + "\n")
			if message.Content != "" {
				wrapped := wordwrap.String(message.Content, wrapWidth-10)
				content.WriteString(right.Render(messageFromMeStyle.Render(wrapped)) + "\n")
			}
			if message.Media != nil {
				content.WriteString(right.Render(renderMedia(message.Media, wrapWidth-10)) + "\n")
			}
			continue
		}

		header := messageHeaderStyle.Render(fmt.Sprintf("%s • %s", m.senderName(message.Sender), timestamp))
		content.WriteString(header + "\n")
		if message.Content != "" {
			wrapped := wordwrap.String(message.Content, wrapWidth-10)
			content.WriteString(messageFromOtherStyle.Render(wrapped) + "\n")
		}
		if message.Media != nil {
			content.WriteString(renderMedia(message.Media, wrapWidth-10) + "\n")
		}
	}

	m.viewport.SetContent(content.String())
}

func mediaIcon(kind models.MediaKind) string {
	switch kind {
	case models.MediaImage:
		return "🖼"
	case models.MediaVideo:
		return "🎬"
	default:
		return "🎵"
	}
}

func renderMedia(ref *models.MediaReference, width int) string {
	kind := media.ClassifyReference(ref)
	label := fmt.Sprintf("%s  [%s] %s", mediaIcon(kind), kind, ref.DirectURL())
	if width > 10 {
		label = truncate.StringWithTail(label, uint(width), "…")
	}
	return mediaStyle.Render(label)
}

func (m RoomModel) header() string {
	if m.counterpart == nil {
		return titleStyle.Render("🌌 Milky Way") + "\n" + subtitleStyle.Render("Waiting for someone to say hi") + "\n"
	}
	avatar := avatarStyle.Render(m.counterpart.Initial())
	name := titleStyle.UnsetMarginBottom().Render(m.counterpart.Username)
	s := avatar + " " + name + "\n"
	if m.counterpart.Status != "" {
		s += subtitleStyle.Render(m.counterpart.Status) + "\n"
	} else {
		s += "\n"
	}
	return s
}

func (m RoomModel) View() string {
	if m.loading && len(m.messages) == 0 {
		return fmt.Sprintf("\n  %s Loading messages...\n", m.spinner.View())
	}

	s := m.header() + "\n"

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	s += m.viewport.View() + "\n"

	switch {
	case m.sending:
		s += fmt.Sprintf("\n  %s Sending...\n", m.spinner.View())
	case m.mode == modeCompose:
		s += "\n" + inputStyle.Render("New Message:") + "\n"
		s += m.textarea.View() + "\n"
		s += helpStyle.Render("ctrl+s: send • esc: cancel")
	case m.mode == modeAttach:
		s += "\n" + inputStyle.Render("Attach file:") + " " + m.pathInput.View() + "\n"
		s += helpStyle.Render("enter: send • esc: cancel")
	case m.mode == modeRecording:
		s += "\n" + recordingStyle.Render("● Recording voice note...") + "\n"
		s += helpStyle.Render("v/enter: stop and send • esc: discard")
	default:
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		helpText := fmt.Sprintf("↑↓/jk: scroll • n: message • a: attach • v: voice • g: gallery • p: profile • r: refresh • L: logout • q: quit • %d%%", scrollPercent)
		s += "\n" + helpStyle.Render(helpText)
	}

	return s
}
