package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/elee1766/playground/src/catalog"
	"github.com/elee1766/playground/src/chat"
)

// Colors is a color palette
type Colors struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// CurrentTheme is the palette styles are built from
var CurrentTheme = Colors{
	Primary:   lipgloss.Color("#7C3AED"),
	Secondary: lipgloss.Color("#06B6D4"),
	Text:      lipgloss.Color("#F9FAFB"),
	TextMuted: lipgloss.Color("#6B7280"),
	Success:   lipgloss.Color("#10B981"),
	Warning:   lipgloss.Color("#F59E0B"),
	Error:     lipgloss.Color("#EF4444"),
}

// SetTheme sets the current theme
func SetTheme(colors Colors) {
	CurrentTheme = colors
}

// Styles used by the command line output
type Styles struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Notice    lipgloss.Style
	Warning   lipgloss.Style
	Selected  lipgloss.Style
	Kinds     map[catalog.Kind]lipgloss.Style
}

// NewStyles builds styles from the current theme. With plain set every style
// renders text unchanged.
func NewStyles(plain bool) Styles {
	if plain {
		s := lipgloss.NewStyle()
		return Styles{
			Title: s, Muted: s, User: s, Assistant: s, Notice: s, Warning: s, Selected: s,
			Kinds: map[catalog.Kind]lipgloss.Style{},
		}
	}

	c := CurrentTheme
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(c.Primary),
		Muted:     lipgloss.NewStyle().Foreground(c.TextMuted),
		User:      lipgloss.NewStyle().Bold(true).Foreground(c.Secondary),
		Assistant: lipgloss.NewStyle().Foreground(c.Text),
		Notice:    lipgloss.NewStyle().Foreground(c.Error),
		Warning:   lipgloss.NewStyle().Foreground(c.Warning),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(c.Success),
		Kinds: map[catalog.Kind]lipgloss.Style{
			catalog.KindInstalled:   lipgloss.NewStyle().Foreground(c.Success),
			catalog.KindPullable:    lipgloss.NewStyle().Foreground(c.Secondary),
			catalog.KindCatalogOnly: lipgloss.NewStyle().Foreground(c.TextMuted),
		},
	}
}

// Kind renders a model kind label.
func (s Styles) Kind(k catalog.Kind) string {
	if style, ok := s.Kinds[k]; ok {
		return style.Render(k.String())
	}
	return k.String()
}

// Speaker renders the role label of a message.
func (s Styles) Speaker(m chat.Message) string {
	switch {
	case m.IsError:
		return s.Notice.Render("assistant")
	case m.Role == chat.RoleUser:
		return s.User.Render("you")
	default:
		return s.Assistant.Render(string(m.Role))
	}
}

// Body renders a message body.
func (s Styles) Body(m chat.Message) string {
	if m.IsError {
		return s.Notice.Render(m.Content)
	}
	return m.Content
}
