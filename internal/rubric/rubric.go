// Package rubric implements the rubric scoring capability bound over a
// rendered assessment fragment. Controllers only see Capability.
package rubric

import (
	"fmt"
	"strings"

	"github.com/kingrea/groupassess/internal/fragment"
)

const (
	// FormID is the element that holds the rubric inside the assessment fragment.
	FormID = "peer-assessment--001__assessment"

	criterionFeedbackPrefix = "assessment__rubric__criterion--"
	criterionFeedbackSuffix = "__feedback"
)

// Capability is the narrow contract the assessment controller depends on.
type Capability interface {
	SelectedOptions() map[string]string
	CriterionFeedback() map[string]string
	CanSubmit() bool
	OnCanSubmitChange(func(bool))
}

// Criterion is one scored rubric row.
type Criterion struct {
	Name     string
	Options  []fragment.Option
	Feedback bool
}

// Rubric tracks option selection and per-criterion feedback.
type Rubric struct {
	criteria  []Criterion
	selected  map[string]string
	feedback  map[string]string
	listeners []func(bool)
}

var _ Capability = (*Rubric)(nil)

// New builds a rubric from explicit criteria.
func New(criteria []Criterion) *Rubric {
	return &Rubric{
		criteria: criteria,
		selected: map[string]string{},
		feedback: map[string]string{},
	}
}

// FromFragment binds a rubric over the assessment form in f. The second
// return is false when the fragment carries no rubric form.
func FromFragment(f *fragment.Fragment) (*Rubric, bool) {
	if f == nil {
		return nil, false
	}
	form, ok := f.Scope(FormID)
	if !ok {
		return nil, false
	}
	var criteria []Criterion
	index := map[string]int{}
	for _, group := range form.RadioGroups() {
		index[group.Name] = len(criteria)
		criteria = append(criteria, Criterion{Name: group.Name, Options: group.Options})
	}
	r := New(criteria)
	for _, c := range criteria {
		for _, opt := range c.Options {
			if opt.Checked {
				r.selected[c.Name] = opt.Value
			}
		}
	}
	for _, field := range form.Textareas() {
		if !strings.HasPrefix(field.ID, criterionFeedbackPrefix) || !strings.HasSuffix(field.ID, criterionFeedbackSuffix) {
			continue
		}
		name := field.Name
		if name == "" {
			name = strings.TrimSuffix(strings.TrimPrefix(field.ID, criterionFeedbackPrefix), criterionFeedbackSuffix)
		}
		idx, ok := index[name]
		if !ok {
			continue
		}
		r.criteria[idx].Feedback = true
		if text := strings.TrimSpace(field.Value); text != "" {
			r.feedback[name] = field.Value
		}
	}
	return r, true
}

// Criteria returns the rubric rows in display order.
func (r *Rubric) Criteria() []Criterion {
	return r.criteria
}

// Select chooses an option for a criterion.
func (r *Rubric) Select(criterion, option string) error {
	c, ok := r.criterion(criterion)
	if !ok {
		return fmt.Errorf("rubric: unknown criterion %q", criterion)
	}
	found := false
	for _, opt := range c.Options {
		if opt.Value == option {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("rubric: criterion %q has no option %q", criterion, option)
	}
	r.selected[criterion] = option
	r.notify()
	return nil
}

// Selected returns the chosen option for a criterion.
func (r *Rubric) Selected(criterion string) (string, bool) {
	value, ok := r.selected[criterion]
	return value, ok
}

// SetFeedback records free-text feedback for a criterion that accepts it.
func (r *Rubric) SetFeedback(criterion, text string) error {
	c, ok := r.criterion(criterion)
	if !ok {
		return fmt.Errorf("rubric: unknown criterion %q", criterion)
	}
	if !c.Feedback {
		return fmt.Errorf("rubric: criterion %q does not accept feedback", criterion)
	}
	if strings.TrimSpace(text) == "" {
		delete(r.feedback, criterion)
	} else {
		r.feedback[criterion] = text
	}
	r.notify()
	return nil
}

// SelectedOptions returns a copy of the criterion → option mapping.
func (r *Rubric) SelectedOptions() map[string]string {
	return copyMap(r.selected)
}

// CriterionFeedback returns a copy of the criterion → feedback mapping.
func (r *Rubric) CriterionFeedback() map[string]string {
	return copyMap(r.feedback)
}

// CanSubmit is true when every criterion has a selected option.
func (r *Rubric) CanSubmit() bool {
	if len(r.criteria) == 0 {
		return false
	}
	for _, c := range r.criteria {
		if _, ok := r.selected[c.Name]; !ok {
			return false
		}
	}
	return true
}

// OnCanSubmitChange registers a listener called with the completeness after
// every change. The listener is invoked once immediately with the current value.
func (r *Rubric) OnCanSubmitChange(fn func(bool)) {
	if fn == nil {
		return
	}
	r.listeners = append(r.listeners, fn)
	fn(r.CanSubmit())
}

func (r *Rubric) notify() {
	can := r.CanSubmit()
	for _, fn := range r.listeners {
		fn(can)
	}
}

func (r *Rubric) criterion(name string) (Criterion, bool) {
	for _, c := range r.criteria {
		if c.Name == name {
			return c, true
		}
	}
	return Criterion{}, false
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
