package group

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Drive runs cmd and every command that follows from it, one message at a
// time, until nothing is left to do or ctx is done. Batches are flattened
// in order. It is the headless counterpart of the bubbletea program loop.
func Drive(ctx context.Context, u Updater, cmd tea.Cmd) error {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch m := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		}
		queue = append(queue, u.Update(msg))
	}
	return nil
}
