package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"fuzzdesc/internal/descriptor"
)

// Options configures the browser.
type Options struct {
	// Write is used when the user saves with w.
	Write  descriptor.WriteOptions
	Logger *zerolog.Logger
}

// wrapText wraps input text to lines no longer than maxWidth display cells.
// It wraps on word boundaries and hard-breaks words that are wider than a line,
// which escaped payloads usually are.
func wrapText(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}

	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		var words []string
		for _, w := range strings.Fields(paragraph) {
			words = append(words, splitWord(w, maxWidth)...)
		}
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var lineBuilder strings.Builder
		lineWidth := 0
		for _, word := range words {
			wordWidth := runewidth.StringWidth(word)
			addedWidth := wordWidth
			if lineWidth > 0 {
				addedWidth++
			}
			if lineWidth > 0 && lineWidth+addedWidth > maxWidth {
				lines = append(lines, lineBuilder.String())
				lineBuilder.Reset()
				lineWidth = 0
			}
			if lineWidth > 0 {
				lineBuilder.WriteString(" ")
				lineWidth++
			}
			lineBuilder.WriteString(word)
			lineWidth += wordWidth
		}
		lines = append(lines, lineBuilder.String())
	}
	return strings.Join(lines, "\n")
}

func splitWord(word string, maxWidth int) []string {
	var out []string
	var cur strings.Builder
	width := 0
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if width+rw > maxWidth && width > 0 {
			out = append(out, cur.String())
			cur.Reset()
			width = 0
		}
		cur.WriteRune(r)
		width += rw
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// Init initializes the browser model and returns any initial commands to run.
func (m model) Init() tea.Cmd {
	return nil
}

// Run launches the browser for the descriptor d that was read from path.
func Run(path string, d *descriptor.Descriptor, opts Options) error {
	m := InitialModel(d, path, 24, opts)
	p := tea.NewProgram(&teaModelAdapter{m}, tea.WithAltScreen())

	_, err := p.Run()
	return err
}

// teaModelAdapter adapts our model to the tea.Model interface using Update and ModelView.
type teaModelAdapter struct {
	m model
}

func (a *teaModelAdapter) Init() tea.Cmd {
	return a.m.Init()
}

func (a *teaModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m2, cmd := Update(a.m, msg)
	a.m = m2
	return a, cmd
}

func (a *teaModelAdapter) View() string {
	return ModelView(a.m)
}
