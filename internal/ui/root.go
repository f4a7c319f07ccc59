package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/milkyway/internal/app"
	"github.com/saravenpi/milkyway/internal/models"
	"github.com/saravenpi/milkyway/internal/notify"
	"github.com/saravenpi/milkyway/internal/session"
)

const toastDuration = 3 * time.Second

type sessionChangedMsg struct {
	authenticated bool
}

type toastMsg struct {
	toast notify.Toast
}

type clearToastMsg struct {
	id int
}

type snapshotMsg struct {
	ch       <-chan []models.ChatMessage
	messages []models.ChatMessage
}

type syncStoppedMsg struct {
	ch <-chan []models.ChatMessage
}

type resumedMsg struct {
	err error
}

// RootModel switches between the login screen and the authenticated screens
// according to the session, and owns the snapshot feed and the toast line.
type RootModel struct {
	app    *app.App
	ctx    context.Context
	screen tea.Model

	snapCh  <-chan []models.ChatMessage
	toast   *notify.Toast
	toastID int

	windowWidth  int
	windowHeight int
}

func NewRootModel(ctx context.Context, a *app.App) RootModel {
	r := RootModel{
		app:          a,
		ctx:          ctx,
		windowWidth:  80,
		windowHeight: 30,
	}
	if a.Authenticated() {
		r.screen = NewRoomModel(ctx, a)
		r.snapCh = a.Sync.Start(ctx)
	} else {
		r.screen = NewLoginModel(ctx, a)
	}
	return r
}

func (r RootModel) Init() tea.Cmd {
	cmds := []tea.Cmd{r.screen.Init()}
	if r.snapCh != nil {
		cmds = append(cmds, r.resumeCmd(), waitForSnapshot(r.snapCh))
	}
	return tea.Batch(cmds...)
}

func (r *RootModel) startSync() tea.Cmd {
	r.snapCh = r.app.Sync.Start(r.ctx)
	return waitForSnapshot(r.snapCh)
}

func waitForSnapshot(ch <-chan []models.ChatMessage) tea.Cmd {
	return func() tea.Msg {
		messages, ok := <-ch
		if !ok {
			return syncStoppedMsg{ch: ch}
		}
		return snapshotMsg{ch: ch, messages: messages}
	}
}

func (r RootModel) resumeCmd() tea.Cmd {
	return func() tea.Msg {
		return resumedMsg{err: r.app.Resume(r.ctx)}
	}
}

func (r RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return r, tea.Quit
		}

	case tea.WindowSizeMsg:
		r.windowWidth = msg.Width
		r.windowHeight = msg.Height

	case sessionChangedMsg:
		_, onLogin := r.screen.(LoginModel)
		if msg.authenticated && onLogin {
			r.screen = resize(NewRoomModel(r.ctx, r.app), r.windowWidth, r.windowHeight)
			return r, tea.Batch(r.screen.Init(), r.startSync())
		}
		if !msg.authenticated && !onLogin {
			r.snapCh = nil
			r.screen = resize(NewLoginModel(r.ctx, r.app), r.windowWidth, r.windowHeight)
			return r, r.screen.Init()
		}
		return r, nil

	case snapshotMsg:
		if msg.ch != r.snapCh {
			return r, nil
		}
		var cmd tea.Cmd
		r.screen, cmd = r.screen.Update(msg)
		return r, tea.Batch(cmd, waitForSnapshot(r.snapCh))

	case syncStoppedMsg:
		if msg.ch == r.snapCh {
			r.snapCh = nil
		}
		return r, nil

	case toastMsg:
		t := msg.toast
		r.toast = &t
		r.toastID++
		id := r.toastID
		return r, tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{id: id} })

	case clearToastMsg:
		if msg.id == r.toastID {
			r.toast = nil
		}
		return r, nil
	}

	var cmd tea.Cmd
	r.screen, cmd = r.screen.Update(msg)
	return r, cmd
}

func (r RootModel) View() string {
	s := r.screen.View()
	if r.toast != nil {
		s += "\n" + renderToast(*r.toast)
	}
	return s
}

func renderToast(t notify.Toast) string {
	switch t.Level {
	case notify.Success:
		return toastSuccessStyle.Render(t.Text)
	case notify.Error:
		return toastErrorStyle.Render(t.Text)
	default:
		return toastInfoStyle.Render(t.Text)
	}
}

// resize hands a freshly created screen the current window size.
func resize(m tea.Model, width, height int) tea.Model {
	if width <= 0 {
		return m
	}
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated
}

// Run starts the terminal UI and blocks until it exits.
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(NewRootModel(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := subscribe(p, a)
	defer unsubscribe()

	_, err := p.Run()
	return err
}

// subscribe forwards session changes and toasts raised outside the UI into
// p. Sends never block the caller, which may be running inside Update.
func subscribe(p *tea.Program, a *app.App) func() {
	unsubscribe := a.Store.Subscribe(func(s session.Session) {
		go p.Send(sessionChangedMsg{authenticated: s.IsAuthenticated})
	})
	a.Notifier.Subscribe(func(t notify.Toast) {
		go p.Send(toastMsg{toast: t})
	})
	return unsubscribe
}
