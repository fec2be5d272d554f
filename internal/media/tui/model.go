// Package tui renders a gallery viewer in the terminal. Key presses are fed
// through a media.Keyboard so the viewer owns its bindings exactly as it
// would in any other front end.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/capitalize-ai/conversation-handoff/internal/media"
	"github.com/capitalize-ai/conversation-handoff/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	captionStyle = lipgloss.NewStyle().Italic(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	frameStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	statusStyles = map[model.ReviewStatus]lipgloss.Style{
		model.ReviewEditorsChoice: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		model.ReviewApproved:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		model.ReviewNotApproved:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
)

// Model is the bubbletea model of the gallery viewer.
type Model struct {
	title    string
	keyboard *media.Keyboard
	viewer   *media.Viewer[model.GalleryPhoto]
	width    int
}

// New opens a viewer over photos at start.
func New(title string, photos []model.GalleryPhoto, start int) (Model, error) {
	keyboard := media.NewKeyboard()
	viewer := media.NewViewer[model.GalleryPhoto](keyboard)
	if err := viewer.Open(photos, start); err != nil {
		return Model{}, err
	}
	return Model{title: title, keyboard: keyboard, viewer: viewer}, nil
}

// Viewer exposes the underlying viewer state.
func (m Model) Viewer() *media.Viewer[model.GalleryPhoto] {
	return m.viewer
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.viewer.Close()
		case tea.KeyLeft:
			m.keyboard.Dispatch(media.KeyLeft)
		case tea.KeyRight:
			m.keyboard.Dispatch(media.KeyRight)
		case tea.KeyEscape:
			m.keyboard.Dispatch(media.KeyEscape)
		case tea.KeyRunes:
			switch string(msg.Runes) {
			case "h":
				m.keyboard.Dispatch(media.KeyLeft)
			case "l":
				m.keyboard.Dispatch(media.KeyRight)
			case "q":
				m.keyboard.Dispatch(media.KeyEscape)
			}
		}
		if !m.viewer.IsOpen() {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	photo, ok := m.viewer.Current()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	style, known := statusStyles[photo.ReviewStatus]
	if !known {
		style = mutedStyle
	}
	fmt.Fprintf(&b, "%s  %s\n", style.Render(statusLabel(photo.ReviewStatus)), mutedStyle.Render(photo.UploadedAt.Format("2 Jan 2006")))
	b.WriteString(photo.FullURL)
	b.WriteString("\n")
	if photo.Caption != "" {
		b.WriteString(captionStyle.Render(photo.Caption))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d / %d", m.viewer.Index()+1, m.viewer.Len())
	b.WriteString(mutedStyle.Render("   ←/h prev  →/l next  esc/q close"))

	frame := frameStyle
	if m.width > 4 {
		frame = frame.Width(m.width - 4)
	}
	return frame.Render(b.String())
}

func statusLabel(s model.ReviewStatus) string {
	switch s {
	case model.ReviewEditorsChoice:
		return "★ Editor's choice"
	case model.ReviewApproved:
		return "Approved"
	case model.ReviewNotApproved:
		return "Not approved"
	default:
		return "Unreviewed"
	}
}
