package group

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/groupassess/internal/fragment"
	"github.com/kingrea/groupassess/internal/rubric"
	"github.com/kingrea/groupassess/internal/transport"
)

const (
	overallFeedbackID = "assessment__rubric__question--feedback__value"

	msgAssessmentFailed = "This assessment could not be submitted."
)

// AdvanceStrategy decides which regions reload after an assessment is accepted.
type AdvanceStrategy struct {
	name    string
	advance func(c *AssessmentController) tea.Cmd
}

func (s AdvanceStrategy) String() string { return s.name }

var (
	// FreshAssessment reloads this view and every dependent assessment module.
	FreshAssessment = AdvanceStrategy{
		name: "fresh",
		advance: func(c *AssessmentController) tea.Cmd {
			cmd := tea.Batch(c.Load(), c.coord.LoadAssessmentModules())
			c.coord.ScrollToTop()
			return cmd
		},
	}
	// ContinuedAssessment is used once the requirement is met: it refreshes
	// the scoring view in place and the grade, leaving other modules alone.
	ContinuedAssessment = AdvanceStrategy{
		name: "continued",
		advance: func(c *AssessmentController) tea.Cmd {
			cmd := tea.Batch(c.LoadContinued(), c.coord.LoadGrade())
			c.coord.ScrollToTop()
			return cmd
		},
	}
)

type assessmentLoadedMsg struct {
	html      string
	continued bool
	err       error
}

type assessmentSubmittedMsg struct {
	attempt  string
	strategy AdvanceStrategy
	err      error
}

// AssessmentController drives scoring one group member with the rubric.
type AssessmentController struct {
	deps
	client transport.Client
	coord  Coordinator

	fragment  *fragment.Fragment
	rubric    rubric.Capability
	overall   string
	control   SubmitControl
	continued bool
	inFlight  bool
	attempt   string
	completed int
	last      AdvanceStrategy
}

// NewAssessmentController wires a controller to its collaborators.
func NewAssessmentController(client transport.Client, coord Coordinator, opts ...Option) *AssessmentController {
	return &AssessmentController{
		deps:   newDeps(opts),
		client: client,
		coord:  coord,
	}
}

// Load requests the scoring view.
func (c *AssessmentController) Load() tea.Cmd {
	return c.load(false)
}

// LoadContinued requests the scoring view in continued-assessment mode.
func (c *AssessmentController) LoadContinued() tea.Cmd {
	return c.load(true)
}

func (c *AssessmentController) load(continued bool) tea.Cmd {
	client, ctx := c.client, c.ctx
	return func() tea.Msg {
		html, err := client.Render(ctx, transport.FragmentAssessment)
		return assessmentLoadedMsg{html: html, continued: continued, err: err}
	}
}

// Fragment returns the currently rendered view.
func (c *AssessmentController) Fragment() *fragment.Fragment { return c.fragment }

// Rubric returns the capability bound over the current view, or nil.
func (c *AssessmentController) Rubric() rubric.Capability { return c.rubric }

// SubmitEnabled reports the submit control state.
func (c *AssessmentController) SubmitEnabled() bool { return c.control.Enabled() }

// SetSubmitEnabled toggles the submit control. It is driven by the rubric's
// completeness notifications.
func (c *AssessmentController) SetSubmitEnabled(enabled bool) {
	if c.inFlight {
		return
	}
	c.control.SetEnabled(enabled)
}

// OverallFeedback returns the free-text overall feedback.
func (c *AssessmentController) OverallFeedback() string { return c.overall }

// SetOverallFeedback replaces the overall feedback.
func (c *AssessmentController) SetOverallFeedback(text string) {
	if c.inFlight {
		return
	}
	c.overall = text
}

// Continued reports whether further assessments use ContinuedAssessment.
func (c *AssessmentController) Continued() bool {
	return c.continued || c.completed >= c.minimumAssessed
}

// Completed counts assessments accepted during this session.
func (c *AssessmentController) Completed() int { return c.completed }

// LastStrategy returns the strategy applied by the most recent advance.
func (c *AssessmentController) LastStrategy() AdvanceStrategy { return c.last }

// Assess submits with the strategy matching the current mode.
func (c *AssessmentController) Assess() tea.Cmd {
	if c.Continued() {
		return c.SubmitAssessment(ContinuedAssessment)
	}
	return c.SubmitAssessment(FreshAssessment)
}

// SubmitAssessment sends the scored rubric and applies strategy on success.
func (c *AssessmentController) SubmitAssessment(strategy AdvanceStrategy) tea.Cmd {
	if !c.control.Enabled() || c.inFlight || c.rubric == nil || !c.rubric.CanSubmit() {
		return nil
	}
	if strategy.advance == nil {
		strategy = FreshAssessment
	}
	c.coord.ToggleActionError(ScopeAssessment, "")
	c.control.SetEnabled(false)
	c.inFlight = true
	c.attempt = c.newID()
	c.journal.Info("assessment · submitting attempt %s (%s)", c.attempt, strategy)

	client, ctx, attempt := c.client, c.ctx, c.attempt
	payload := transport.Assessment{
		SelectedOptions:   c.rubric.SelectedOptions(),
		CriterionFeedback: c.rubric.CriterionFeedback(),
		OverallFeedback:   c.overall,
	}
	return func() tea.Msg {
		err := client.SubmitAssessment(ctx, payload)
		return assessmentSubmittedMsg{attempt: attempt, strategy: strategy, err: err}
	}
}

// Update applies asynchronous results addressed to this controller.
func (c *AssessmentController) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case assessmentLoadedMsg:
		return c.handleLoaded(m)
	case assessmentSubmittedMsg:
		if m.attempt != c.attempt || !c.inFlight {
			return nil
		}
		return c.handleSubmitted(m)
	}
	return nil
}

func (c *AssessmentController) handleLoaded(m assessmentLoadedMsg) tea.Cmd {
	if m.err != nil {
		c.journal.Error("assessment · load failed: %v", m.err)
		c.coord.ShowLoadError(RegionAssessment)
		return nil
	}
	f, err := fragment.Parse(string(RegionAssessment), m.html)
	if err != nil {
		c.journal.Error("assessment · %v", err)
		c.coord.ShowLoadError(RegionAssessment)
		return nil
	}
	if m.continued {
		c.continued = true
	}
	c.fragment = f
	c.coord.SetUpCollapseExpand(RegionAssessment, c.LoadContinued)
	if c.inFlight {
		return nil
	}
	c.overall = ""
	for _, field := range f.Textareas() {
		if field.ID == overallFeedbackID {
			c.overall = field.Value
		}
	}
	c.rubric = nil
	c.control.SetEnabled(false)
	if r, ok := c.binder(f); ok {
		c.rubric = r
		r.OnCanSubmitChange(c.SetSubmitEnabled)
	}
	return nil
}

func (c *AssessmentController) handleSubmitted(m assessmentSubmittedMsg) tea.Cmd {
	c.inFlight = false
	result := AssessmentPolicy.Classify(m.err)
	if !result.Outcome.Advances() {
		message := result.Message
		if message == "" {
			message = c.lookup(msgAssessmentFailed)
		}
		c.journal.Error("assessment · %s", message)
		c.coord.ToggleActionError(ScopeAssessment, message)
		c.control.SetEnabled(true)
		return nil
	}
	c.completed++
	c.last = m.strategy
	c.journal.Info("assessment · accepted (%d this session), advancing %s", c.completed, m.strategy)
	return m.strategy.advance(c)
}
