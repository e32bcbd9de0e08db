package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/groupassess/internal/group"
	"github.com/kingrea/groupassess/internal/logbook"
	"github.com/kingrea/groupassess/internal/transport"
)

const (
	submissionMarkup = `
<div id="openassessment__group_response">
  <h4>Your response</h4>
  <p>Describe your contribution.</p>
  <span id="response__order_num">1</span>
  <textarea id="submission__answer__value"></textarea>
</div>`

	assessmentMarkup = `
<form id="peer-assessment--001__assessment">
  <input type="radio" name="Ideas" value="Poor"><input type="radio" name="Ideas" value="Good">
  <input type="radio" name="Content" value="Fair"><input type="radio" name="Content" value="Excellent">
  <textarea id="assessment__rubric__question--feedback__value"></textarea>
</form>`

	gradeMarkup = `<div><p>Your grade: 8 out of 10</p></div>`
)

func TestInitLoadsEverySection(t *testing.T) {
	client := newFakeClient()
	app := newTestApp(t, client)
	if app.response.Fragment() == nil || app.assessment.Fragment() == nil || app.grade.Fragment() == nil {
		t.Fatalf("expected every section to be loaded")
	}
	if app.assessment.Rubric() == nil {
		t.Fatalf("expected rubric to be bound")
	}
	if !strings.Contains(app.renderGrade(), "8 out of 10") {
		t.Fatalf("grade section missing: %q", app.renderGrade())
	}
}

func TestResponseSubmitConfirmsThroughModal(t *testing.T) {
	client := newFakeClient()
	app := newTestApp(t, client)
	app = press(t, app, runes("My part"))
	if app.response.Text() != "My part" || !app.response.SubmitEnabled() {
		t.Fatalf("typing should enable submit, text=%q", app.response.Text())
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if app.modal == nil {
		t.Fatalf("submit should open the confirmation modal")
	}
	if app.modal.prompt != group.ConfirmSubmissionPrompt {
		t.Fatalf("unexpected prompt %q", app.modal.prompt)
	}
	if !strings.Contains(app.View(), "n → cancel") {
		t.Fatalf("modal not rendered")
	}
	if len(client.submits) != 0 {
		t.Fatalf("nothing may be sent before confirmation")
	}
	app = press(t, app, runes("y"))
	if app.modal != nil {
		t.Fatalf("modal should close after the decision")
	}
	if len(client.submits) != 1 || client.submits[0] != "My part" {
		t.Fatalf("unexpected submits %v", client.submits)
	}
	if app.response.Advances() != 1 {
		t.Fatalf("expected the workflow to advance")
	}
	if app.responseInput.Value() != "" {
		t.Fatalf("reloaded response view should reset the editor, got %q", app.responseInput.Value())
	}
}

func TestDeclinedModalLeavesSubmitDisabled(t *testing.T) {
	client := newFakeClient()
	app := newTestApp(t, client)
	app = press(t, app, runes("draft"))
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	app = press(t, app, runes("n"))
	if app.modal != nil || len(client.submits) != 0 {
		t.Fatalf("declined submission must not be sent")
	}
	if app.response.SubmitEnabled() {
		t.Fatalf("decline leaves the control disabled")
	}
	app = press(t, app, runes("!"))
	if !app.response.SubmitEnabled() {
		t.Fatalf("editing should enable submit again")
	}
}

func TestSubmitFailureShowsBanner(t *testing.T) {
	client := newFakeClient()
	client.submitErr = &transport.Error{Message: "Server error"}
	app := newTestApp(t, client)
	app = press(t, app, runes("x"))
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	app = press(t, app, runes("y"))
	out := app.renderSection(focusResponse, app.renderResponse(), 100)
	if !strings.Contains(out, "Server error") {
		t.Fatalf("banner not rendered:\n%s", out)
	}
	if !app.response.SubmitEnabled() {
		t.Fatalf("submit should be re-enabled")
	}
}

func TestAssessmentKeysScoreAndSubmit(t *testing.T) {
	client := newFakeClient()
	app := newTestApp(t, client)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.focus != focusAssessment {
		t.Fatalf("tab should move to the assessment section, focus=%d", app.focus)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	if app.assessment.SubmitEnabled() {
		t.Fatalf("one criterion scored must not enable submit")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	if !app.assessment.SubmitEnabled() {
		t.Fatalf("scoring every criterion should enable submit")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = press(t, app, runes("Great work"))
	if app.assessment.OverallFeedback() != "Great work" {
		t.Fatalf("overall feedback = %q", app.assessment.OverallFeedback())
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if len(client.assessments) != 1 {
		t.Fatalf("expected 1 assessment, got %d", len(client.assessments))
	}
	sent := client.assessments[0]
	if sent.SelectedOptions["Ideas"] != "Good" || sent.SelectedOptions["Content"] != "Fair" {
		t.Fatalf("unexpected options %+v", sent.SelectedOptions)
	}
	if sent.OverallFeedback != "Great work" {
		t.Fatalf("overall feedback sent = %q", sent.OverallFeedback)
	}
	if app.scrolls != 1 {
		t.Fatalf("advance should scroll to top")
	}
	if app.feedbackInput.Value() != "" {
		t.Fatalf("reloaded assessment should reset the feedback editor")
	}
}

func TestAssessmentCriterionComments(t *testing.T) {
	client := newFakeClient()
	client.markup[transport.FragmentAssessment] = `
<form id="peer-assessment--001__assessment">
  <input type="radio" name="Ideas" value="Poor"><input type="radio" name="Ideas" value="Good">
  <input type="radio" name="Content" value="Fair"><input type="radio" name="Content" value="Excellent">
  <textarea id="assessment__rubric__criterion--Content__feedback" name="Content"></textarea>
  <textarea id="assessment__rubric__question--feedback__value"></textarea>
</form>`
	app := newTestApp(t, client)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if row := app.currentRow(); !row.note || app.criteria()[row.criterion].Name != "Content" {
		t.Fatalf("expected the Content comment row, got %+v", row)
	}
	app = press(t, app, runes("Well sourced"))
	if got := app.noteFor("Content"); got != "Well sourced" {
		t.Fatalf("criterion comment = %q", got)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if !app.currentRow().overall() {
		t.Fatalf("expected the overall feedback row")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyUp})
	if app.noteInput.Value() != "Well sourced" {
		t.Fatalf("returning to the row should restore the comment, got %q", app.noteInput.Value())
	}
	if !strings.Contains(app.renderAssessment(), "Comments:") {
		t.Fatalf("comment row not rendered:\n%s", app.renderAssessment())
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if len(client.assessments) != 1 {
		t.Fatalf("expected 1 assessment, got %d", len(client.assessments))
	}
	sent := client.assessments[0]
	if sent.CriterionFeedback["Content"] != "Well sourced" {
		t.Fatalf("unexpected criterion feedback %+v", sent.CriterionFeedback)
	}
	if sent.SelectedOptions["Ideas"] != "Poor" || sent.SelectedOptions["Content"] != "Fair" {
		t.Fatalf("unexpected options %+v", sent.SelectedOptions)
	}
}

func TestCheckedOptionsStartSelected(t *testing.T) {
	client := newFakeClient()
	client.markup[transport.FragmentAssessment] = `
<form id="peer-assessment--001__assessment">
  <input type="radio" name="Ideas" value="Poor"><input type="radio" name="Ideas" value="Good" checked>
  <input type="radio" name="Content" value="Fair" checked><input type="radio" name="Content" value="Excellent">
</form>`
	app := newTestApp(t, client)
	if !app.assessment.SubmitEnabled() {
		t.Fatalf("server-selected options should make the rubric submittable")
	}
	if app.optionIndex["Ideas"] != 1 || app.optionIndex["Content"] != 0 {
		t.Fatalf("unexpected option cursor %+v", app.optionIndex)
	}
}

func TestCollapseAndExpandLoadsContinuedAssessment(t *testing.T) {
	client := newFakeClient()
	app := newTestApp(t, client, WithGroupOptions(group.WithMinimumAssessments(3)))
	app = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlE})
	if !app.collapsed[group.RegionAssessment] {
		t.Fatalf("expected the section to collapse")
	}
	if app.assessment.Continued() {
		t.Fatalf("collapsing must not switch modes")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlE})
	if app.collapsed[group.RegionAssessment] {
		t.Fatalf("expected the section to expand")
	}
	if !app.assessment.Continued() {
		t.Fatalf("expanding should load the continued assessment")
	}
}

func TestLoadErrorRendersAndClearsOnReload(t *testing.T) {
	client := newFakeClient()
	client.renderErr[transport.FragmentGrade] = &transport.Error{Message: "boom"}
	app := newTestApp(t, client)
	if !app.loadErrors[group.RegionGrade] {
		t.Fatalf("expected grade load error")
	}
	out := app.renderSection(focusGrade, app.renderGrade(), 100)
	if !strings.Contains(out, "could not be loaded") {
		t.Fatalf("load error not rendered:\n%s", out)
	}
	delete(client.renderErr, transport.FragmentGrade)
	app = runCommands(t, app, app.LoadGrade())
	if app.loadErrors[group.RegionGrade] {
		t.Fatalf("successful reload should clear the load error")
	}
}

func TestJoinFormSubmits(t *testing.T) {
	client := newFakeClient()
	lb, err := logbook.New(filepath.Join(t.TempDir(), "journey.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	app := newTestApp(t, client, WithLogbook(lb))
	app = press(t, app, tea.KeyMsg{Type: tea.KeyShiftTab})
	if app.focus != focusJoin {
		t.Fatalf("shift+tab should move to the join section, focus=%d", app.focus)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if msg, _ := app.errors.Get(group.ScopeJoin); msg == "" {
		t.Fatalf("empty form should show a banner")
	}
	app = press(t, app, runes("Ada"))
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = press(t, app, runes("ada@example.com"))
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if client.joins != 1 || !app.join.Joined() {
		t.Fatalf("expected join, joins=%d", client.joins)
	}
	if _, active := app.errors.Get(group.ScopeJoin); active {
		t.Fatalf("banner should be cleared")
	}
	if !strings.Contains(app.renderLogPanel(), "joined group") {
		t.Fatalf("log panel should show the journey:\n%s", app.renderLogPanel())
	}
}

func newTestApp(t *testing.T, client *fakeClient, opts ...AppOption) *App {
	t.Helper()
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("attempt-%d", n)
	}
	base := []AppOption{WithGroupOptions(group.WithAttemptIDs(ids))}
	app := NewApp(client, append(base, opts...)...)
	return runCommands(t, app, app.Init())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app *App, msg tea.KeyMsg) *App {
	t.Helper()
	model, cmd := app.Update(msg)
	return runCommands(t, model, cmd)
}

// runCommands drains cmd through the model, flattening batches the way the
// bubbletea runtime does.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatalf("commands did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		queue = append(queue, nextCmd)
	}
	return app
}

type fakeClient struct {
	markup      map[string]string
	renderErr   map[string]error
	submits     []string
	submitErr   error
	assessments []transport.Assessment
	joins       int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		markup: map[string]string{
			transport.FragmentSubmission: submissionMarkup,
			transport.FragmentAssessment: assessmentMarkup,
			transport.FragmentGrade:      gradeMarkup,
		},
		renderErr: map[string]error{},
	}
}

func (f *fakeClient) Render(_ context.Context, name string) (string, error) {
	if err := f.renderErr[name]; err != nil {
		return "", err
	}
	return f.markup[name], nil
}

func (f *fakeClient) SubmitResponse(_ context.Context, text string, _ int) error {
	f.submits = append(f.submits, text)
	return f.submitErr
}

func (f *fakeClient) SubmitAssessment(_ context.Context, a transport.Assessment) error {
	f.assessments = append(f.assessments, a)
	return nil
}

func (f *fakeClient) JoinGroup(_ context.Context, name, _ string) (string, error) {
	f.joins++
	return "<p>Group: " + name + "</p>", nil
}
