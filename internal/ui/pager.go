package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
	"github.com/pkg/errors"

	"fastfinder/internal/domain"
	"fastfinder/internal/results"
)

// renderHelpContent renders the key reference shown in the pager
func renderHelpContent(keys keyMap) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Search", []key.Binding{keys.NextField, keys.PrevField, keys.Search, keys.Cancel, keys.ClearFilter}},
		{"Results", []key.Binding{keys.Up, keys.Down, keys.PageUp, keys.PageDown, keys.Top, keys.Bottom, keys.Select}},
		{"Sort & Output", []key.Binding{keys.SortNext, keys.SortReverse, keys.Copy, keys.Export, keys.Pager}},
		{"Options", []key.Binding{keys.Regex, keys.Recursive, keys.Zip, keys.Word, keys.Excel, keys.Legacy}},
		{"Other", []key.Binding{keys.Help, keys.Quit}},
	}

	var help strings.Builder
	help.WriteString(titleStyle.Render("fastfinder Help"))
	help.WriteString("\n")

	for _, s := range sections {
		help.WriteString(sectionStyle.Render(s.title))
		help.WriteString("\n")
		for _, b := range s.bindings {
			h := b.Help()
			help.WriteString(fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-10s", h.Key)), descStyle.Render(h.Desc)))
		}
		help.WriteString("\n")
	}

	help.WriteString(lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")).
		Render("  Filter: space separated words, every word must appear in path, entry or snippet"))
	return help.String()
}

// renderResultsContent renders the visible rows as TSV for the pager
func renderResultsContent(p domain.ViewProjection) string {
	var b strings.Builder
	if err := results.WriteDelimited(&b, p, results.FormatTSV); err != nil {
		return err.Error()
	}
	return b.String()
}

// PagerOps runs ov on top of the released terminal
type PagerOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps(program *tea.Program) *PagerOps {
	return &PagerOps{program: program}
}

// Show displays content using the ov pager
func (p *PagerOps) Show(content string) error {
	if p.program == nil {
		return errors.New("program not set")
	}

	// Release terminal control to run ov
	if err := p.program.ReleaseTerminal(); err != nil {
		return errors.Wrap(err, "release terminal")
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return errors.Wrap(err, "open pager")
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	configureVimKeyBindings(&config)

	root.SetConfig(config)
	return root.Run()
}

// configureVimKeyBindings adds vim-style movement next to ov's defaults
func configureVimKeyBindings(config *oviewer.Config) {
	if config.Keybind == nil {
		config.Keybind = make(map[string][]string)
	}
	extra := map[string][]string{
		"exit":      {"q", "Escape"},
		"down":      {"j", "Down"},
		"up":        {"k", "Up"},
		"top":       {"g", "Home"},
		"bottom":    {"G", "End"},
		"page_down": {"ctrl+f", "PageDown"},
		"page_up":   {"ctrl+b", "PageUp"},
	}
	for action, keys := range extra {
		config.Keybind[action] = mergeKeys(config.Keybind[action], keys)
	}
}

func mergeKeys(have, add []string) []string {
	out := append([]string{}, have...)
	for _, k := range add {
		found := false
		for _, h := range out {
			if h == k {
				found = true
				break
			}
		}
		if !found {
			out = append(out, k)
		}
	}
	return out
}
