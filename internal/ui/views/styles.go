package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Label         lipgloss.Style
	FocusedLabel  lipgloss.Style
	Dim           lipgloss.Style
	Header        lipgloss.Style
	Path          lipgloss.Style
	Entry         lipgloss.Style
	Line          lipgloss.Style
	Snippet       lipgloss.Style
	Match         lipgloss.Style
	Cursor        lipgloss.Style
	SelectionBg   lipgloss.Style
	OptionOn      lipgloss.Style
	OptionOff     lipgloss.Style
	Filter        lipgloss.Style
	Status        lipgloss.Style
	StatusError   lipgloss.Style
	StatusRunning lipgloss.Style
	StatusDone    lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Label:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		FocusedLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Dim:          lipgloss.NewStyle().Faint(true),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Underline(true),
		Path:          lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Entry:         lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		Line:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Snippet:       lipgloss.NewStyle(),
		Match:         lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Cursor:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		SelectionBg:   lipgloss.NewStyle().Background(lipgloss.Color("238")),
		OptionOn:      lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		OptionOff:     lipgloss.NewStyle().Faint(true),
		Filter:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Status:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // cyan
		StatusDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		Help:          lipgloss.NewStyle().Faint(true),
		Main:          lipgloss.NewStyle().Padding(0, 1),
	}
}
