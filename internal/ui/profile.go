package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saravenpi/milkyway/internal/app"
	"github.com/saravenpi/milkyway/internal/models"
)

type profileFetchedMsg struct {
	profile *models.UserProfile
	err     error
}

type profileSavedMsg struct {
	err error
}

type ProfileModel struct {
	app          *app.App
	ctx          context.Context
	profile      *models.UserProfile
	statusInput  textinput.Model
	pictureInput textinput.Model
	focusIndex   int
	loading      bool
	saving       bool
	err          error
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewProfileModel(ctx context.Context, a *app.App) ProfileModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	status := textinput.New()
	status.Placeholder = "What's on your mind?"
	status.Focus()
	status.CharLimit = 140
	status.Width = 50

	picture := textinput.New()
	picture.Placeholder = "Path to a new picture (optional)"
	picture.CharLimit = 1024
	picture.Width = 50

	return ProfileModel{
		app:          a,
		ctx:          ctx,
		statusInput:  status,
		pictureInput: picture,
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ProfileModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.fetchProfileCmd())
}

func (m ProfileModel) fetchProfileCmd() tea.Cmd {
	return func() tea.Msg {
		p, err := m.app.Profiles.Caller(m.ctx)
		return profileFetchedMsg{profile: p, err: err}
	}
}

func (m ProfileModel) saveCmd(picturePath, status string) tea.Cmd {
	return func() tea.Msg {
		return profileSavedMsg{err: m.app.UpdateProfile(m.ctx, picturePath, status)}
	}
}

func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case profileFetchedMsg:
		m.loading = false
		m.err = msg.err
		m.profile = msg.profile
		if m.profile != nil && m.statusInput.Value() == "" {
			m.statusInput.SetValue(m.profile.Status)
		}
		return m, nil

	case profileSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.pictureInput.Reset()
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchProfileCmd())

	case spinner.TickMsg:
		if m.loading || m.saving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			room := NewRoomModel(m.ctx, m.app)
			return resize(room, m.windowWidth, m.windowHeight), room.Init()

		case "tab", "shift+tab", "up", "down":
			m.focusIndex = (m.focusIndex + 1) % 2
			if m.focusIndex == 0 {
				m.statusInput.Focus()
				m.pictureInput.Blur()
			} else {
				m.statusInput.Blur()
				m.pictureInput.Focus()
			}
			return m, nil

		case "ctrl+s":
			if m.loading {
				return m, nil
			}
			m.saving = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.saveCmd(strings.TrimSpace(m.pictureInput.Value()), m.statusInput.Value()))
		}
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.statusInput, cmd = m.statusInput.Update(msg)
	} else {
		m.pictureInput, cmd = m.pictureInput.Update(msg)
	}
	return m, cmd
}

func (m ProfileModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading profile...\n", m.spinner.View())
	}

	s := titleStyle.Render("Your Profile") + "\n\n"

	if m.profile != nil {
		s += avatarStyle.Render(m.profile.Initial()) + " " + normalStyle.Bold(true).Render(m.profile.Username) + "\n"
		if m.profile.Status != "" {
			s += subtitleStyle.Render(m.profile.Status) + "\n"
		}
		if m.profile.ProfilePicture != nil {
			s += mediaStyle.Render("🖼  "+m.profile.ProfilePicture.DirectURL()) + "\n"
		}
		s += "\n"
	} else {
		s += normalStyle.Render("  No profile yet.") + "\n\n"
	}

	s += inputStyle.Render("Status:") + "\n"
	s += m.statusInput.View() + "\n\n"
	s += inputStyle.Render("Picture:") + "\n"
	s += m.pictureInput.View() + "\n\n"

	if m.saving {
		s += m.spinner.View() + " Saving...\n\n"
	} else if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("tab: switch field • ctrl+s: save • esc: back")
	return lipgloss.NewStyle().Padding(1, 2).Render(s)
}
