package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saravenpi/milkyway/internal/app"
	"github.com/saravenpi/milkyway/internal/backend"
)

type loginResultMsg struct {
	err error
}

type LoginModel struct {
	app           *app.App
	ctx           context.Context
	usernameInput textinput.Model
	passwordInput textinput.Model
	focusIndex    int
	loggingIn     bool
	errText       string
	spinner       spinner.Model
	windowWidth   int
	windowHeight  int
}

func NewLoginModel(ctx context.Context, a *app.App) LoginModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	username := textinput.New()
	username.Placeholder = "Username"
	username.Focus()
	username.CharLimit = 64
	username.Width = 40

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 40

	return LoginModel{
		app:           a,
		ctx:           ctx,
		usernameInput: username,
		passwordInput: password,
		spinner:       s,
		windowWidth:   80,
		windowHeight:  30,
	}
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.Login(m.ctx, username, password)
		return loginResultMsg{err: err}
	}
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.errText = backend.LoginErrorMessage(msg.err)
			m.passwordInput.Reset()
			return m, nil
		}
		// The session change switches the screen.
		m.errText = ""
		return m, nil

	case spinner.TickMsg:
		if m.loggingIn {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.loggingIn {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, tea.Quit

		case "tab", "shift+tab", "up", "down":
			if m.focusIndex == 0 {
				m.focusIndex = 1
			} else {
				m.focusIndex = 0
			}
			m.updateFocus()
			return m, nil

		case "enter":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.updateFocus()
				return m, nil
			}
			username := strings.TrimSpace(m.usernameInput.Value())
			password := m.passwordInput.Value()
			if username == "" || password == "" {
				m.errText = "Please enter both username and password."
				return m, nil
			}
			m.loggingIn = true
			m.errText = ""
			return m, tea.Batch(m.spinner.Tick, m.loginCmd(username, password))
		}
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.usernameInput, cmd = m.usernameInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *LoginModel) updateFocus() {
	if m.focusIndex == 0 {
		m.usernameInput.Focus()
		m.passwordInput.Blur()
	} else {
		m.usernameInput.Blur()
		m.passwordInput.Focus()
	}
}

func (m LoginModel) View() string {
	s := titleStyle.Render("🌌 Milky Way") + "\n"
	s += subtitleStyle.Render("A private space for two") + "\n\n"

	s += inputStyle.Render("Username:") + "\n"
	s += m.usernameInput.View() + "\n\n"
	s += inputStyle.Render("Password:") + "\n"
	s += m.passwordInput.View() + "\n\n"

	if m.loggingIn {
		s += m.spinner.View() + " Logging in...\n\n"
	} else if m.errText != "" {
		s += errorStyle.Render(m.errText) + "\n\n"
	}

	s += helpStyle.Render("tab: switch field • enter: login • esc: quit")

	return lipgloss.NewStyle().Padding(1, 2).Render(s)
}
