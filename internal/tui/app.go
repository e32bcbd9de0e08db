// internal/tui/app.go
//
// This is the terminal UI for the group assessment workflow.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the App and the workflow controllers it owns
// 2. Update: key presses and controller results become state changes
// 3. View: the sections rendered as boxes in a scrollable viewport
//
// The App is also the workflow coordinator: controllers call back into it to
// report load failures, show action errors and reload dependent sections.

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/groupassess/internal/fragment"
	"github.com/kingrea/groupassess/internal/group"
	"github.com/kingrea/groupassess/internal/i18n"
	"github.com/kingrea/groupassess/internal/logbook"
	"github.com/kingrea/groupassess/internal/rubric"
	"github.com/kingrea/groupassess/internal/transport"
)

// focusArea is the section that receives key input.
type focusArea int

const (
	focusJoin focusArea = iota
	focusResponse
	focusAssessment
	focusGrade
)

var focusOrder = []focusArea{focusJoin, focusResponse, focusAssessment, focusGrade}

func (f focusArea) region() group.Region {
	switch f {
	case focusJoin:
		return group.RegionJoin
	case focusResponse:
		return group.RegionResponse
	case focusAssessment:
		return group.RegionAssessment
	default:
		return group.RegionGrade
	}
}

const (
	joinFieldName = iota
	joinFieldEmail
)

// confirmModal is an open confirmation waiting for y/n.
type confirmModal struct {
	id     string
	prompt string
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook records the session journey and shows its tail in the log panel.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithGroupOptions passes options through to every workflow controller.
func WithGroupOptions(opts ...group.Option) AppOption {
	return func(a *App) {
		a.groupOpts = append(a.groupOpts, opts...)
	}
}

// WithLookup translates the App's own user-visible strings.
func WithLookup(fn i18n.Lookup) AppOption {
	return func(a *App) {
		a.lookup = i18n.OrIdentity(fn)
	}
}

// WithStudent pre-fills the join form.
func WithStudent(name, email string) AppOption {
	return func(a *App) {
		a.nameInput.SetValue(name)
		a.emailInput.SetValue(email)
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	logbook   *logbook.Logbook
	lookup    i18n.Lookup
	groupOpts []group.Option

	response   *group.ResponseController
	assessment *group.AssessmentController
	grade      *group.GradeController
	join       *group.JoinController

	// Coordinator state
	errors     group.ActionErrors
	loadErrors map[group.Region]bool
	collapsed  map[group.Region]bool
	expanders  map[group.Region]func() tea.Cmd
	scrolls    int
	modal      *confirmModal

	// UI components
	keys          keyMap
	help          help.Model
	viewport      viewport.Model
	responseInput textarea.Model
	feedbackInput textarea.Model
	noteInput     textarea.Model
	nameInput     textinput.Model
	emailInput    textinput.Model

	focus        focusArea
	joinField    int
	criterionRow int
	optionIndex  map[string]int
	statusMsg    string

	// Fragments the inputs were last synced from
	seenResponse   *fragment.Fragment
	seenAssessment *fragment.Fragment

	// Window size (we get this from bubbletea)
	width  int
	height int
}

var (
	_ group.Coordinator = (*App)(nil)
	_ group.Confirmer   = (*App)(nil)
	_ tea.Model         = (*App)(nil)
)

// NewApp creates a new App talking to client.
func NewApp(client transport.Client, opts ...AppOption) *App {
	a := &App{
		lookup:        i18n.Identity,
		loadErrors:    map[group.Region]bool{},
		collapsed:     map[group.Region]bool{},
		expanders:     map[group.Region]func() tea.Cmd{},
		keys:          newKeyMap(),
		help:          help.New(),
		viewport:      viewport.New(100, 30),
		responseInput: newTextarea("Enter your response to the prompt above."),
		feedbackInput: newTextarea("I noticed that this response..."),
		noteInput:     newTextarea("Comments on this criterion"),
		nameInput:     newTextinput("Your name"),
		emailInput:    newTextinput("you@example.com"),
		focus:         focusResponse,
		optionIndex:   map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	groupOpts := []group.Option{group.WithLookup(a.lookup)}
	if a.logbook != nil {
		groupOpts = append(groupOpts, group.WithJournal(a.logbook))
	}
	groupOpts = append(groupOpts, a.groupOpts...)
	a.response = group.NewResponseController(client, a, a, groupOpts...)
	a.assessment = group.NewAssessmentController(client, a, groupOpts...)
	a.grade = group.NewGradeController(client, a, groupOpts...)
	a.join = group.NewJoinController(client, a, groupOpts...)
	a.applyFocus()
	return a
}

func newTextarea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.Cursor.SetMode(cursor.CursorStatic)
	return ta
}

func newTextinput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 255
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	a.logInfo("Session opened")
	return a.ReloadWorkflow()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil
	case tea.KeyMsg:
		if a.modal != nil {
			return a, a.handleModalKey(msg)
		}
		return a, a.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, a.dispatch(msg)
}

// dispatch routes a controller result to every controller and refreshes the
// inputs from whatever they reloaded.
func (a *App) dispatch(msg tea.Msg) tea.Cmd {
	cmd := tea.Batch(
		a.response.Update(msg),
		a.assessment.Update(msg),
		a.grade.Update(msg),
		a.join.Update(msg),
	)
	a.syncInputs()
	return cmd
}

func (a *App) syncInputs() {
	if f := a.response.Fragment(); f != a.seenResponse {
		a.seenResponse = f
		a.responseInput.SetValue(a.response.Text())
	}
	if f := a.assessment.Fragment(); f != a.seenAssessment {
		a.seenAssessment = f
		a.feedbackInput.SetValue(a.assessment.OverallFeedback())
		a.criterionRow = 0
		a.optionIndex = map[string]int{}
		if r, ok := a.assessment.Rubric().(*rubric.Rubric); ok {
			for _, crit := range r.Criteria() {
				value, picked := r.Selected(crit.Name)
				for i, opt := range crit.Options {
					if picked && opt.Value == value {
						a.optionIndex[crit.Name] = i
					}
				}
			}
		}
		a.applyFocus()
	}
}

func (a *App) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Accept):
		return a.decide(true)
	case key.Matches(msg, a.keys.Decline):
		return a.decide(false)
	}
	return nil
}

func (a *App) decide(ok bool) tea.Cmd {
	modal := a.modal
	a.modal = nil
	if ok {
		a.statusMsg = a.lookup("Submitting your response…")
	} else {
		a.statusMsg = a.lookup("Submission cancelled.")
	}
	return a.dispatch(group.ConfirmDecisionMsg{ID: modal.id, OK: ok})
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.NextSection):
		a.cycleFocus(1)
		return nil
	case key.Matches(msg, a.keys.PrevSection):
		a.cycleFocus(-1)
		return nil
	case key.Matches(msg, a.keys.Submit):
		return a.submitFocused()
	case key.Matches(msg, a.keys.Toggle):
		return a.toggleRegion(a.focus.region())
	case key.Matches(msg, a.keys.PageUp, a.keys.PageDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	}
	switch a.focus {
	case focusResponse:
		a.editResponse(msg)
	case focusAssessment:
		a.handleAssessmentKey(msg)
	case focusJoin:
		a.handleJoinKey(msg)
	}
	return nil
}

func (a *App) cycleFocus(step int) {
	idx := 0
	for i, f := range focusOrder {
		if f == a.focus {
			idx = i
		}
	}
	idx = (idx + step + len(focusOrder)) % len(focusOrder)
	a.focus = focusOrder[idx]
	a.applyFocus()
}

// applyFocus gives key input to the widget under the cursor and blurs the rest.
func (a *App) applyFocus() {
	a.responseInput.Blur()
	a.feedbackInput.Blur()
	a.noteInput.Blur()
	a.nameInput.Blur()
	a.emailInput.Blur()
	switch a.focus {
	case focusResponse:
		a.responseInput.Focus()
	case focusAssessment:
		row := a.currentRow()
		switch {
		case row.overall():
			a.feedbackInput.Focus()
		case row.note:
			name := a.criteria()[row.criterion].Name
			a.noteInput.SetValue(a.noteFor(name))
			a.noteInput.Focus()
		}
	case focusJoin:
		if a.joinField == joinFieldName {
			a.nameInput.Focus()
		} else {
			a.emailInput.Focus()
		}
	}
}

func (a *App) submitFocused() tea.Cmd {
	switch a.focus {
	case focusResponse:
		return a.response.Submit(a.response.Text(), a.response.Ordinal())
	case focusAssessment:
		cmd := a.assessment.Assess()
		if cmd != nil {
			a.statusMsg = a.lookup("Submitting your assessment…")
		}
		return cmd
	case focusJoin:
		return a.join.Join(a.nameInput.Value(), a.emailInput.Value())
	}
	return nil
}

func (a *App) editResponse(msg tea.KeyMsg) {
	a.responseInput, _ = a.responseInput.Update(msg)
	value := a.responseInput.Value()
	a.response.SetText(value)
	a.response.OnResponseChanged()
	if a.response.Text() != value {
		// frozen while a submission is pending
		a.responseInput.SetValue(a.response.Text())
	}
}

func (a *App) criteria() []rubric.Criterion {
	r, ok := a.assessment.Rubric().(*rubric.Rubric)
	if !ok {
		return nil
	}
	return r.Criteria()
}

// assessmentRow is one cursor stop in the assessment section: a criterion's
// options, its comment box, or the overall feedback (criterion -1).
type assessmentRow struct {
	criterion int
	note      bool
}

func (r assessmentRow) overall() bool { return r.criterion < 0 }

func (a *App) assessmentRows() []assessmentRow {
	var rows []assessmentRow
	for i, crit := range a.criteria() {
		rows = append(rows, assessmentRow{criterion: i})
		if crit.Feedback {
			rows = append(rows, assessmentRow{criterion: i, note: true})
		}
	}
	return append(rows, assessmentRow{criterion: -1})
}

func (a *App) currentRow() assessmentRow {
	rows := a.assessmentRows()
	if a.criterionRow < 0 || a.criterionRow >= len(rows) {
		return assessmentRow{criterion: -1}
	}
	return rows[a.criterionRow]
}

func (a *App) noteFor(criterion string) string {
	r, ok := a.assessment.Rubric().(*rubric.Rubric)
	if !ok {
		return ""
	}
	return r.CriterionFeedback()[criterion]
}

func (a *App) handleAssessmentKey(msg tea.KeyMsg) {
	criteria := a.criteria()
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.criterionRow > 0 {
			a.criterionRow--
			a.applyFocus()
		}
		return
	case key.Matches(msg, a.keys.Down):
		if a.criterionRow < len(a.assessmentRows())-1 {
			a.criterionRow++
			a.applyFocus()
		}
		return
	}
	row := a.currentRow()
	if row.overall() {
		a.feedbackInput, _ = a.feedbackInput.Update(msg)
		a.assessment.SetOverallFeedback(a.feedbackInput.Value())
		return
	}
	crit := criteria[row.criterion]
	if row.note {
		a.editNote(crit, msg)
		return
	}
	if len(crit.Options) == 0 {
		return
	}
	idx, chosen := a.optionIndex[crit.Name]
	switch {
	case key.Matches(msg, a.keys.Right):
		if !chosen {
			idx = 0
		} else if idx < len(crit.Options)-1 {
			idx++
		}
	case key.Matches(msg, a.keys.Left):
		if !chosen {
			idx = 0
		} else if idx > 0 {
			idx--
		}
	default:
		return
	}
	a.selectOption(crit, idx)
}

func (a *App) editNote(crit rubric.Criterion, msg tea.KeyMsg) {
	r, ok := a.assessment.Rubric().(*rubric.Rubric)
	if !ok {
		return
	}
	a.noteInput, _ = a.noteInput.Update(msg)
	if err := r.SetFeedback(crit.Name, a.noteInput.Value()); err != nil {
		a.statusMsg = err.Error()
	}
}

func (a *App) selectOption(crit rubric.Criterion, idx int) {
	r, ok := a.assessment.Rubric().(*rubric.Rubric)
	if !ok {
		return
	}
	if err := r.Select(crit.Name, crit.Options[idx].Value); err != nil {
		a.statusMsg = err.Error()
		return
	}
	a.optionIndex[crit.Name] = idx
}

func (a *App) handleJoinKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, a.keys.Up):
		a.joinField = joinFieldName
		a.applyFocus()
		return
	case key.Matches(msg, a.keys.Down):
		a.joinField = joinFieldEmail
		a.applyFocus()
		return
	}
	if a.joinField == joinFieldName {
		a.nameInput, _ = a.nameInput.Update(msg)
	} else {
		a.emailInput, _ = a.emailInput.Update(msg)
	}
}

// toggleRegion collapses an open region, or expands a collapsed one and runs
// the expand callback registered for it.
func (a *App) toggleRegion(region group.Region) tea.Cmd {
	if !a.collapsed[region] {
		a.collapsed[region] = true
		return nil
	}
	a.collapsed[region] = false
	if fn := a.expanders[region]; fn != nil {
		a.logInfo("%s · expanded", region)
		return fn()
	}
	return nil
}

// Confirm opens the confirmation modal. The decision arrives as a key press.
func (a *App) Confirm(id, prompt string) tea.Cmd {
	a.modal = &confirmModal{id: id, prompt: prompt}
	return nil
}

// ShowLoadError marks region as failed to load.
func (a *App) ShowLoadError(region group.Region) {
	a.loadErrors[region] = true
}

// ToggleActionError sets or clears the banner for scope.
func (a *App) ToggleActionError(scope group.Scope, message string) {
	a.errors.Set(scope, message)
}

// LoadAssessmentModules reloads the sections that depend on workflow progress.
func (a *App) LoadAssessmentModules() tea.Cmd {
	return tea.Batch(a.assessment.Load(), a.grade.Load())
}

// LoadGrade reloads the grade section.
func (a *App) LoadGrade() tea.Cmd {
	return a.grade.Load()
}

// ReloadWorkflow reloads every section.
func (a *App) ReloadWorkflow() tea.Cmd {
	return tea.Batch(a.response.Load(), a.LoadAssessmentModules())
}

// ScrollToTop moves the viewport back to the first line.
func (a *App) ScrollToTop() {
	a.scrolls++
	a.viewport.GotoTop()
}

// SetUpCollapseExpand clears a stale load error and records the expand
// callback for a freshly loaded region.
func (a *App) SetUpCollapseExpand(region group.Region, onExpand func() tea.Cmd) {
	delete(a.loadErrors, region)
	a.expanders[region] = onExpand
}

func (a *App) resize() {
	width := max(40, a.width-4)
	a.responseInput.SetWidth(width - 4)
	a.feedbackInput.SetWidth(width - 4)
	a.noteInput.SetWidth(width - 8)
	a.nameInput.Width = width - 12
	a.emailInput.Width = width - 12
	a.help.Width = a.width
	a.viewport.Width = max(20, a.width)
	a.viewport.Height = max(5, a.height-logPanelLines-6)
}

func (a *App) sectionTitle(region group.Region) string {
	switch region {
	case group.RegionJoin:
		return a.lookup("Your Group")
	case group.RegionResponse:
		return a.lookup("Your Response")
	case group.RegionAssessment:
		return a.lookup("Assess Your Group")
	default:
		return a.lookup("Your Grade")
	}
}

func trimmedLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
