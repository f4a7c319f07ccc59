package ui

import (
	"context"
	"fmt"
	"path"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/saravenpi/milkyway/internal/app"
	"github.com/saravenpi/milkyway/internal/gallery"
)

type galleryItem struct {
	item  gallery.Item
	index int
}

type galleryFetchedMsg struct {
	items []gallery.Item
	err   error
}

func (i galleryItem) Title() string {
	return fmt.Sprintf("%s  %s", mediaIcon(i.item.Kind), mediaTitle(i.item.Ref.DirectURL(), i.index))
}

func (i galleryItem) Description() string {
	return truncate.StringWithTail(fmt.Sprintf("%s • %s", i.item.Kind, i.item.Ref.DirectURL()), 70, "…")
}

func (i galleryItem) FilterValue() string {
	return i.item.Ref.DirectURL()
}

func mediaTitle(url string, index int) string {
	name := path.Base(url)
	if name == "." || name == "/" || name == "" {
		return fmt.Sprintf("Media #%d", index+1)
	}
	return name
}

type GalleryModel struct {
	app          *app.App
	ctx          context.Context
	items        []gallery.Item
	list         list.Model
	selected     *gallery.Item
	loading      bool
	err          error
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewGalleryModel(ctx context.Context, a *app.App) GalleryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("213")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("243"))

	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Gallery"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return GalleryModel{
		app:          a,
		ctx:          ctx,
		list:         l,
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m GalleryModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchGalleryCmd())
}

func (m GalleryModel) fetchGalleryCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.app.GalleryItems(m.ctx)
		return galleryFetchedMsg{items: items, err: err}
	}
}

func (m GalleryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case galleryFetchedMsg:
		m.loading = false
		m.err = msg.err
		m.items = msg.items
		items := make([]list.Item, len(m.items))
		for i, item := range m.items {
			items[i] = galleryItem{item: item, index: i}
		}
		m.list.SetItems(items)
		m.list.Title = fmt.Sprintf("Gallery - %d items", len(m.items))
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "esc":
			if m.selected != nil {
				m.selected = nil
				return m, nil
			}
			room := NewRoomModel(m.ctx, m.app)
			return resize(room, m.windowWidth, m.windowHeight), room.Init()

		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.selected = nil
			m.app.Gallery.Invalidate()
			return m, tea.Batch(m.spinner.Tick, m.fetchGalleryCmd())

		case "enter":
			if item, ok := m.list.SelectedItem().(galleryItem); ok && !m.loading {
				selected := item.item
				m.selected = &selected
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m GalleryModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading gallery...\n", m.spinner.View())
	}

	if m.selected != nil {
		s := titleStyle.Render(fmt.Sprintf("%s  %s", mediaIcon(m.selected.Kind), m.selected.Kind)) + "\n\n"
		s += mediaStyle.Render(m.selected.Ref.DirectURL()) + "\n\n"
		s += helpStyle.Render("esc: back to gallery • q: quit")
		return s
	}

	var s string
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	if len(m.items) == 0 {
		s = titleStyle.Render("Gallery") + "\n\n" + s
		s += normalStyle.Render("  "+gallery.EmptyText) + "\n"
		s += "\n" + helpStyle.Render("r: refresh • esc: back • q: quit")
		return s
	}

	s += m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: details • /: search • r: refresh • esc: back • q: quit")
	return s
}
