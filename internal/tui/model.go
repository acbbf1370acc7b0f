package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/rs/zerolog"

	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/report"
	"fuzzdesc/pkg/address"
)

// View identifies which screen is active.
type View int

const (
	ViewMessageList View = iota
	ViewMessageDetail
	ViewQuitting
)

// MessageItem represents one message of the descriptor in the list.
type MessageItem struct {
	Index int
	line  string
}

func (m MessageItem) Title() string       { return m.line }
func (m MessageItem) Description() string { return "" }
func (m MessageItem) FilterValue() string { return m.line }

// newMessageItem renders the list line of message i, cut to width cells.
func newMessageItem(d *descriptor.Descriptor, i, width int) MessageItem {
	msg := d.Messages[i]
	mark := "     "
	if d.IsFuzzTarget(address.Whole(i)) {
		mark = "fuzz "
	} else if hasPartTarget(d, i) {
		mark = "part "
	}
	head := fmt.Sprintf("%3d %s%-8s %5dB ", i, mark, msg.Direction, len(msg.Original()))
	if len(msg.Subcomponents) > 1 {
		head += fmt.Sprintf("(%d parts) ", len(msg.Subcomponents))
	}
	return MessageItem{
		Index: i,
		line:  head + report.Preview(msg.Original(), max(width-len(head), 8)),
	}
}

func hasPartTarget(d *descriptor.Descriptor, i int) bool {
	for j := range d.Messages[i].Subcomponents {
		if d.IsFuzzTarget(address.Part(i, j)) {
			return true
		}
	}
	return false
}

// model is the Bubbletea model for the descriptor browser.
type model struct {
	list       list.Model
	ActiveView View
	d          *descriptor.Descriptor
	path       string
	writeOpts  descriptor.WriteOptions
	logger     *zerolog.Logger

	partCursor  int
	dirty       bool
	confirmQuit bool
	status      string
	height      int // Track terminal height for dynamic resizing
	width       int // Track terminal width for dynamic resizing
}

// InitialModel creates the browser model for d, which was read from path.
func InitialModel(d *descriptor.Descriptor, path string, height int, opts Options) model {
	defaultWidth := 80
	listHeight := max(height-8, 5)
	listDelegate := list.NewDefaultDelegate()
	listDelegate.ShowDescription = false
	l := list.New(messageItems(d, defaultWidth-6), listDelegate, defaultWidth, listHeight)
	// We handle q/ctrl+c ourselves
	l.KeyMap.Quit.SetEnabled(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Title = path

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return model{
		list:       l,
		ActiveView: ViewMessageList,
		d:          d,
		path:       path,
		writeOpts:  opts.Write,
		logger:     logger,
		height:     height,
		width:      defaultWidth,
	}
}

func messageItems(d *descriptor.Descriptor, width int) []list.Item {
	items := make([]list.Item, len(d.Messages))
	for i := range d.Messages {
		items[i] = newMessageItem(d, i, width)
	}
	return items
}

// selected returns the index of the highlighted message, or -1.
func (m model) selected() int {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return -1
	}
	return item.Index
}

func (m model) targetsLine() string {
	if s := m.d.FuzzTargetsString(); s != "" {
		return "fuzz: " + s
	}
	return "fuzz: none"
}

func (m model) helpLine() string {
	keys := []string{"space toggle fuzz", "enter parts", "w write", "q quit"}
	if m.ActiveView == ViewMessageDetail {
		keys = []string{"space toggle part", "esc back", "w write", "q quit"}
	}
	return strings.Join(keys, " • ")
}
