package group

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/groupassess/internal/transport"
)

// Session is a headless base view: it owns the controllers, implements
// Coordinator for them and routes messages back to them. The CLI drives it
// with Drive; the TUI has its own coordinator with the same semantics.
type Session struct {
	Response   *ResponseController
	Assessment *AssessmentController
	Grade      *GradeController
	Join       *JoinController

	errors      ActionErrors
	loadErrors  map[Region]bool
	expanders   map[Region]func() tea.Cmd
	scrolls     int
	moduleLoads int
}

var _ Coordinator = (*Session)(nil)

// NewSession builds every controller against client.
func NewSession(client transport.Client, confirmer Confirmer, opts ...Option) *Session {
	s := &Session{
		loadErrors: map[Region]bool{},
		expanders:  map[Region]func() tea.Cmd{},
	}
	s.Response = NewResponseController(client, s, confirmer, opts...)
	s.Assessment = NewAssessmentController(client, s, opts...)
	s.Grade = NewGradeController(client, s, opts...)
	s.Join = NewJoinController(client, s, opts...)
	return s
}

// Init loads every region.
func (s *Session) Init() tea.Cmd {
	return s.ReloadWorkflow()
}

// Update routes msg to every controller.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	return tea.Batch(
		s.Response.Update(msg),
		s.Assessment.Update(msg),
		s.Grade.Update(msg),
		s.Join.Update(msg),
	)
}

// ShowLoadError marks region as failed to load.
func (s *Session) ShowLoadError(region Region) {
	s.loadErrors[region] = true
}

// LoadError reports whether region failed to load.
func (s *Session) LoadError(region Region) bool {
	return s.loadErrors[region]
}

// ToggleActionError sets or clears the message for scope.
func (s *Session) ToggleActionError(scope Scope, message string) {
	s.errors.Set(scope, message)
}

// ActionError returns the active message for scope.
func (s *Session) ActionError(scope Scope) (string, bool) {
	return s.errors.Get(scope)
}

// ActionErrors lists every active message.
func (s *Session) ActionErrors() []ScopedMessage {
	return s.errors.Active()
}

// LoadAssessmentModules reloads the sections that depend on workflow progress.
func (s *Session) LoadAssessmentModules() tea.Cmd {
	s.moduleLoads++
	return tea.Batch(s.Assessment.Load(), s.Grade.Load())
}

// ModuleLoads counts LoadAssessmentModules calls.
func (s *Session) ModuleLoads() int { return s.moduleLoads }

// LoadGrade reloads the grade section.
func (s *Session) LoadGrade() tea.Cmd {
	return s.Grade.Load()
}

// ReloadWorkflow reloads every region.
func (s *Session) ReloadWorkflow() tea.Cmd {
	return tea.Batch(s.Response.Load(), s.LoadAssessmentModules())
}

// ScrollToTop has nothing to scroll headlessly; calls are counted.
func (s *Session) ScrollToTop() { s.scrolls++ }

// Scrolls counts ScrollToTop calls.
func (s *Session) Scrolls() int { return s.scrolls }

// SetUpCollapseExpand records the expand callback for a freshly loaded region.
func (s *Session) SetUpCollapseExpand(region Region, onExpand func() tea.Cmd) {
	delete(s.loadErrors, region)
	s.expanders[region] = onExpand
}

// Expand runs the expand callback registered for region.
func (s *Session) Expand(region Region) tea.Cmd {
	if fn := s.expanders[region]; fn != nil {
		return fn()
	}
	return nil
}
