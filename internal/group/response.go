package group

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/groupassess/internal/fragment"
	"github.com/kingrea/groupassess/internal/transport"
)

const (
	responseOrderID  = "response__order_num"
	responseAnswerID = "submission__answer__value"

	msgResponseFailed = "This response could not be submitted."
)

// ResponseState is the per-attempt state of a response submission.
type ResponseState int

const (
	ResponseIdle ResponseState = iota
	ResponseConfirming
	ResponseAborted
	ResponseInFlight
	ResponseAdvanced
)

func (s ResponseState) String() string {
	switch s {
	case ResponseIdle:
		return "idle"
	case ResponseConfirming:
		return "confirming"
	case ResponseAborted:
		return "aborted"
	case ResponseInFlight:
		return "in-flight"
	case ResponseAdvanced:
		return "advanced"
	default:
		return "unknown"
	}
}

type responseLoadedMsg struct {
	html string
	err  error
}

type responseSubmittedMsg struct {
	attempt string
	err     error
}

type pendingResponse struct {
	text    string
	ordinal int
}

// ResponseController drives entering and submitting one part of the group
// project response.
type ResponseController struct {
	deps
	client    transport.Client
	coord     Coordinator
	confirmer Confirmer

	fragment *fragment.Fragment
	text     string
	ordinal  int
	control  SubmitControl
	state    ResponseState
	attempt  string
	pending  pendingResponse
	advances int
}

// NewResponseController wires a controller to its collaborators.
func NewResponseController(client transport.Client, coord Coordinator, confirmer Confirmer, opts ...Option) *ResponseController {
	return &ResponseController{
		deps:      newDeps(opts),
		client:    client,
		coord:     coord,
		confirmer: confirmer,
		ordinal:   1,
	}
}

// Load requests the response view.
func (c *ResponseController) Load() tea.Cmd {
	client, ctx := c.client, c.ctx
	return func() tea.Msg {
		html, err := client.Render(ctx, transport.FragmentSubmission)
		return responseLoadedMsg{html: html, err: err}
	}
}

// Fragment returns the currently rendered view, or nil before the first load.
func (c *ResponseController) Fragment() *fragment.Fragment { return c.fragment }

// Text returns the response text.
func (c *ResponseController) Text() string { return c.text }

// SetText replaces the response text. The text is read-only from the
// moment a submission starts until the next view load after it advanced.
func (c *ResponseController) SetText(text string) {
	if c.frozen() {
		return
	}
	c.text = text
}

// Ordinal identifies which part of the prompt this response answers.
func (c *ResponseController) Ordinal() int { return c.ordinal }

// SubmitEnabled reports the submit control state.
func (c *ResponseController) SubmitEnabled() bool { return c.control.Enabled() }

// SetSubmitEnabled toggles the submit control.
func (c *ResponseController) SetSubmitEnabled(enabled bool) { c.control.SetEnabled(enabled) }

// State returns the current attempt state.
func (c *ResponseController) State() ResponseState { return c.state }

// Advances counts how many times the workflow moved past this step.
func (c *ResponseController) Advances() int { return c.advances }

// OnResponseChanged enables the submit control only for non-blank text.
func (c *ResponseController) OnResponseChanged() {
	if c.frozen() {
		return
	}
	c.control.SetEnabled(strings.TrimSpace(c.text) != "")
}

// Submit starts a submission attempt. It is a no-op while the control is
// disabled, which is the only guard against duplicate submission.
func (c *ResponseController) Submit(text string, ordinal int) tea.Cmd {
	if !c.control.Enabled() || c.frozen() {
		return nil
	}
	c.control.SetEnabled(false)
	c.text = text
	c.pending = pendingResponse{text: text, ordinal: ordinal}
	c.attempt = c.newID()
	c.state = ResponseConfirming
	c.journal.Info("response · part %d · confirming attempt %s", ordinal, c.attempt)
	if c.confirmer == nil {
		id := c.attempt
		return func() tea.Msg { return ConfirmDecisionMsg{ID: id, OK: true} }
	}
	return c.confirmer.Confirm(c.attempt, c.lookup(ConfirmSubmissionPrompt))
}

// Update applies asynchronous results addressed to this controller.
func (c *ResponseController) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case responseLoadedMsg:
		return c.handleLoaded(m)
	case ConfirmDecisionMsg:
		if m.ID != c.attempt || c.state != ResponseConfirming {
			return nil
		}
		return c.handleDecision(m.OK)
	case responseSubmittedMsg:
		if m.attempt != c.attempt || c.state != ResponseInFlight {
			return nil
		}
		return c.handleSubmitted(m.err)
	}
	return nil
}

func (c *ResponseController) handleLoaded(m responseLoadedMsg) tea.Cmd {
	if m.err != nil {
		c.journal.Error("response · load failed: %v", m.err)
		c.coord.ShowLoadError(RegionResponse)
		return nil
	}
	f, err := fragment.Parse(string(RegionResponse), m.html)
	if err != nil {
		c.journal.Error("response · %v", err)
		c.coord.ShowLoadError(RegionResponse)
		return nil
	}
	c.fragment = f
	c.coord.SetUpCollapseExpand(RegionResponse, nil)
	if c.awaiting() {
		// an attempt is still pending; its result decides the next step
		return nil
	}
	c.state = ResponseIdle
	c.attempt = ""
	c.text = ""
	for _, field := range f.Textareas() {
		if field.ID == responseAnswerID {
			c.text = field.Value
		}
	}
	if n, err := strconv.Atoi(f.TextByID(responseOrderID)); err == nil && n > 0 {
		c.ordinal = n
	}
	c.OnResponseChanged()
	return nil
}

func (c *ResponseController) handleDecision(ok bool) tea.Cmd {
	if !ok {
		c.state = ResponseAborted
		c.journal.Info("response · part %d · submission cancelled", c.pending.ordinal)
		if c.reenableOnDecline {
			c.control.SetEnabled(true)
		}
		return nil
	}
	c.coord.ToggleActionError(ScopeResponse, "")
	c.state = ResponseInFlight
	client, ctx, attempt, pending := c.client, c.ctx, c.attempt, c.pending
	return func() tea.Msg {
		err := client.SubmitResponse(ctx, pending.text, pending.ordinal)
		return responseSubmittedMsg{attempt: attempt, err: err}
	}
}

func (c *ResponseController) handleSubmitted(err error) tea.Cmd {
	result := ResponsePolicy.Classify(err)
	switch result.Outcome {
	case OutcomeOK:
		c.journal.Info("response · part %d · submitted", c.pending.ordinal)
	case OutcomeTreatAsOK:
		c.journal.Warn("response · part %d · %s: already submitted, moving on", c.pending.ordinal, result.Code)
	default:
		message := result.Message
		if message == "" {
			message = c.lookup(msgResponseFailed)
		}
		c.journal.Error("response · part %d · %s", c.pending.ordinal, message)
		c.state = ResponseIdle
		c.coord.ToggleActionError(ScopeResponse, message)
		c.control.SetEnabled(true)
		return nil
	}
	return c.moveToNextStep()
}

func (c *ResponseController) moveToNextStep() tea.Cmd {
	c.state = ResponseAdvanced
	c.advances++
	return tea.Batch(c.Load(), c.coord.LoadAssessmentModules())
}

// awaiting reports an attempt awaiting its decision or transport result.
func (c *ResponseController) awaiting() bool {
	return c.state == ResponseConfirming || c.state == ResponseInFlight
}

// frozen also covers an advanced attempt whose view has not been replaced yet.
func (c *ResponseController) frozen() bool {
	return c.awaiting() || c.state == ResponseAdvanced
}
