package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"fuzzdesc/internal/core"
	"fuzzdesc/pkg/address"
)

// Update handles all Bubbletea update logic for the browser model.
func Update(m model, msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsg(m, msg)
	case tea.WindowSizeMsg:
		return handleWindowResize(m, msg)
	default:
		if m.ActiveView == ViewMessageList {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func HandleKeyMsg(m model, msg tea.KeyMsg) (model, tea.Cmd) {
	k := msg.String()

	if m.ActiveView == ViewQuitting {
		return m, nil
	}

	switch k {
	case "ctrl+c":
		m.ActiveView = ViewQuitting
		return m, tea.Quit
	case "q":
		if m.dirty && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "Unsaved changes. Press w to write or q again to quit."
			return m, nil
		}
		m.ActiveView = ViewQuitting
		return m, tea.Quit
	case "w":
		return writeDescriptor(m)
	}
	m.confirmQuit = false

	switch m.ActiveView {
	case ViewMessageList:
		switch k {
		case " ":
			return toggle(m, address.Whole(m.selected()))
		case "enter":
			if m.selected() < 0 {
				return m, nil
			}
			m.ActiveView = ViewMessageDetail
			m.partCursor = 0
			m.status = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case ViewMessageDetail:
		parts := len(m.d.Messages[m.selected()].Subcomponents)
		switch k {
		case "esc", "backspace":
			m.ActiveView = ViewMessageList
			return m, nil
		case "up", "k":
			if m.partCursor > 0 {
				m.partCursor--
			}
		case "down", "j":
			if m.partCursor < parts-1 {
				m.partCursor++
			}
		case " ":
			return toggle(m, address.Part(m.selected(), m.partCursor))
		}
	}
	return m, nil
}

func toggle(m model, a address.Address) (model, tea.Cmd) {
	if a.Message < 0 {
		return m, nil
	}
	on, err := core.ToggleTarget(m.d, a)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.dirty = true
	if on {
		m.status = fmt.Sprintf("Marked %s for fuzzing", a)
	} else {
		m.status = fmt.Sprintf("Unmarked %s", a)
	}
	cmd := m.list.SetItem(a.Message, newMessageItem(m.d, a.Message, m.width-6))
	return m, cmd
}

func writeDescriptor(m model) (model, tea.Cmd) {
	m.confirmQuit = false
	written, err := m.d.WriteFile(m.path, m.writeOpts)
	if err != nil {
		m.logger.Error().Err(err).Str("path", m.path).Msg("Failed to write descriptor")
		m.status = "Write failed: " + err.Error()
		return m, nil
	}
	m.dirty = false
	m.status = "Wrote " + written
	return m, nil
}

func handleWindowResize(m model, msg tea.WindowSizeMsg) (model, tea.Cmd) {
	m.height = msg.Height
	m.width = msg.Width
	m.list.SetHeight(max(msg.Height-8, 5))
	m.list.SetWidth(msg.Width)

	// Refresh list items so previews use the new width
	m.list.SetItems(messageItems(m.d, m.width-6))
	return m, nil
}
