package group

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmSubmissionPrompt is shown before a response part is submitted.
const ConfirmSubmissionPrompt = "You're about to submit your response for this assignment. " +
	"After you submit this response, you can't change it or submit a new response."

// ConfirmDecisionMsg carries the user's decision for confirmation ID.
type ConfirmDecisionMsg struct {
	ID string
	OK bool
}

// Confirmer asks the user to proceed or abort. The returned command (or a
// later UI event, for in-app modals) must yield exactly one
// ConfirmDecisionMsg with the same id.
type Confirmer interface {
	Confirm(id, prompt string) tea.Cmd
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(id, prompt string) tea.Cmd

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(id, prompt string) tea.Cmd { return f(id, prompt) }

// AutoConfirm answers every prompt with decision.
func AutoConfirm(decision bool) Confirmer {
	return ConfirmerFunc(func(id, _ string) tea.Cmd {
		return func() tea.Msg { return ConfirmDecisionMsg{ID: id, OK: decision} }
	})
}

// PromptConfirmer asks on a line-oriented terminal. Only "y" or "yes"
// proceeds; anything else, including EOF, aborts.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex
}

// NewPromptConfirmer reads answers from in and writes prompts to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm implements Confirmer.
func (p *PromptConfirmer) Confirm(id, prompt string) tea.Cmd {
	return func() tea.Msg {
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(p.out, "%s\nSubmit? [y/N] ", prompt)
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			return ConfirmDecisionMsg{ID: id, OK: false}
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return ConfirmDecisionMsg{ID: id, OK: answer == "y" || answer == "yes"}
	}
}
