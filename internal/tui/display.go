package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type pageMsg struct {
	page, total int
}

type percentMsg float64

// Display forwards tracker display updates into a bubbletea program. Updates
// that arrive before Bind are dropped; the model reads the position itself
// when it starts.
type Display struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Bind connects the display to a program, usually with (*tea.Program).Send.
func (d *Display) Bind(send func(tea.Msg)) {
	d.mu.Lock()
	d.send = send
	d.mu.Unlock()
}

func (d *Display) PageDisplayChanged(page, total int) {
	d.emit(pageMsg{page: page, total: total})
}

func (d *Display) PercentDisplayChanged(percent float64) {
	d.emit(percentMsg(percent))
}

func (d *Display) emit(msg tea.Msg) {
	d.mu.Lock()
	send := d.send
	d.mu.Unlock()
	if send != nil {
		send(msg)
	}
}
