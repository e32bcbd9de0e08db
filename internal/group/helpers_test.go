package group

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/groupassess/internal/transport"
)

const (
	submissionMarkup = `
<div id="openassessment__group_response">
  <h4>Your response</h4>
  <span id="response__order_num">2</span>
  <textarea id="submission__answer__value"></textarea>
</div>`

	assessmentMarkup = `
<div id="openassessment__group-assessment">
  <form id="peer-assessment--001__assessment">
    <input type="radio" name="Ideas" value="Poor"><input type="radio" name="Ideas" value="Good">
    <input type="radio" name="Content" value="Fair"><input type="radio" name="Content" value="Excellent">
    <textarea id="assessment__rubric__question--feedback__value"></textarea>
  </form>
</div>`

	gradeMarkup = `<div id="openassessment__grade"><p>Your grade: 8 out of 10</p></div>`
)

type submitCall struct {
	text    string
	ordinal int
}

type fakeClient struct {
	markup      map[string]string
	renderErr   map[string]error
	renders     map[string]int
	submits     []submitCall
	submitErr   error
	assessments []transport.Assessment
	assessErr   error
	joins       int
	joinErr     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		markup: map[string]string{
			transport.FragmentSubmission: submissionMarkup,
			transport.FragmentAssessment: assessmentMarkup,
			transport.FragmentGrade:      gradeMarkup,
		},
		renderErr: map[string]error{},
		renders:   map[string]int{},
	}
}

func (f *fakeClient) Render(_ context.Context, name string) (string, error) {
	f.renders[name]++
	if err := f.renderErr[name]; err != nil {
		return "", err
	}
	return f.markup[name], nil
}

func (f *fakeClient) SubmitResponse(_ context.Context, text string, ordinal int) error {
	f.submits = append(f.submits, submitCall{text: text, ordinal: ordinal})
	return f.submitErr
}

func (f *fakeClient) SubmitAssessment(_ context.Context, a transport.Assessment) error {
	f.assessments = append(f.assessments, a)
	return f.assessErr
}

func (f *fakeClient) JoinGroup(_ context.Context, name, email string) (string, error) {
	f.joins++
	if f.joinErr != nil {
		return "", f.joinErr
	}
	return fmt.Sprintf("<p>Welcome %s</p>", name), nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("attempt-%d", n)
	}
}

func newTestSession(t *testing.T, client *fakeClient, confirmer Confirmer, opts ...Option) *Session {
	t.Helper()
	base := []Option{WithAttemptIDs(sequentialIDs())}
	s := NewSession(client, confirmer, append(base, opts...)...)
	drive(t, s, s.Init())
	return s
}

func drive(t *testing.T, u Updater, cmd tea.Cmd) {
	t.Helper()
	if err := Drive(context.Background(), u, cmd); err != nil {
		t.Fatalf("drive: %v", err)
	}
}

func scoreAll(t *testing.T, s *Session) {
	t.Helper()
	type selecter interface {
		Select(criterion, option string) error
	}
	r, ok := s.Assessment.Rubric().(selecter)
	if !ok {
		t.Fatalf("expected a selectable rubric, got %T", s.Assessment.Rubric())
	}
	if err := r.Select("Ideas", "Good"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := r.Select("Content", "Excellent"); err != nil {
		t.Fatalf("select: %v", err)
	}
}
