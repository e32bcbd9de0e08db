// Package group holds the client-side workflow controllers for group peer
// assessment: joining a group, submitting response parts and assessing
// group members.
//
// Controllers follow the bubbletea model. Every user action is a method
// that mutates controller state synchronously and returns a tea.Cmd for the
// asynchronous step (render fetch, confirmation, submit). The command's
// message is fed back through Update, which applies the outcome and returns
// the next command. Only one Update runs at a time, so the synchronous part
// of each action is atomic with respect to other UI events.
package group

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// Region names a page area that is replaced wholesale by a rendered fragment.
type Region string

const (
	RegionResponse   Region = "group_response"
	RegionAssessment Region = "group-assessment"
	RegionGrade      Region = "grade"
	RegionJoin       Region = "join"
)

// Scope names a UI area that owns at most one visible action error.
type Scope string

const (
	ScopeResponse   Scope = "response"
	ScopeAssessment Scope = "assessment"
	ScopeJoin       Scope = "join"
)

// Coordinator is the base view that sequences controllers, reloads
// dependent sections and surfaces errors.
type Coordinator interface {
	ShowLoadError(region Region)
	// ToggleActionError sets the message for scope; an empty message clears it.
	ToggleActionError(scope Scope, message string)
	LoadAssessmentModules() tea.Cmd
	LoadGrade() tea.Cmd
	ReloadWorkflow() tea.Cmd
	ScrollToTop()
	SetUpCollapseExpand(region Region, onExpand func() tea.Cmd)
}

// Journal records workflow milestones. *logbook.Logbook satisfies it.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopJournal struct{}

func (nopJournal) Info(string, ...any)  {}
func (nopJournal) Warn(string, ...any)  {}
func (nopJournal) Error(string, ...any) {}

// Updater consumes messages and returns the next command.
type Updater interface {
	Update(msg tea.Msg) tea.Cmd
}

// SubmitControl is the enable/disable state of a controller's submit button.
type SubmitControl struct {
	enabled bool
}

// Enabled reports whether the control accepts activation.
func (s *SubmitControl) Enabled() bool { return s.enabled }

// SetEnabled toggles the control.
func (s *SubmitControl) SetEnabled(enabled bool) { s.enabled = enabled }

// ScopedMessage is one active action error.
type ScopedMessage struct {
	Scope   Scope
	Message string
}

// ActionErrors keeps at most one message per scope.
type ActionErrors struct {
	messages map[Scope]string
}

// Set replaces the message for scope. An empty message clears the scope.
func (a *ActionErrors) Set(scope Scope, message string) {
	if message == "" {
		delete(a.messages, scope)
		return
	}
	if a.messages == nil {
		a.messages = map[Scope]string{}
	}
	a.messages[scope] = message
}

// Get returns the active message for scope.
func (a *ActionErrors) Get(scope Scope) (string, bool) {
	msg, ok := a.messages[scope]
	return msg, ok
}

// Active lists active messages ordered by scope name.
func (a *ActionErrors) Active() []ScopedMessage {
	out := make([]ScopedMessage, 0, len(a.messages))
	for scope, msg := range a.messages {
		out = append(out, ScopedMessage{Scope: scope, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })
	return out
}
