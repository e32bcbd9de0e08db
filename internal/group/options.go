package group

import (
	"context"

	"github.com/google/uuid"

	"github.com/kingrea/groupassess/internal/fragment"
	"github.com/kingrea/groupassess/internal/i18n"
	"github.com/kingrea/groupassess/internal/rubric"
)

// RubricBinder binds a rubric capability over a freshly rendered assessment
// fragment. It returns false when the fragment holds no rubric.
type RubricBinder func(f *fragment.Fragment) (rubric.Capability, bool)

// BindRubric is the default RubricBinder.
func BindRubric(f *fragment.Fragment) (rubric.Capability, bool) {
	r, ok := rubric.FromFragment(f)
	if !ok {
		return nil, false
	}
	return r, true
}

type deps struct {
	ctx               context.Context
	journal           Journal
	lookup            i18n.Lookup
	newID             func() string
	binder            RubricBinder
	reenableOnDecline bool
	minimumAssessed   int
}

func newDeps(opts []Option) deps {
	d := deps{
		ctx:             context.Background(),
		journal:         nopJournal{},
		lookup:          i18n.Identity,
		newID:           uuid.NewString,
		binder:          BindRubric,
		minimumAssessed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}

// Option customizes controller construction.
type Option func(*deps)

// WithContext sets the context for transport calls.
func WithContext(ctx context.Context) Option {
	return func(d *deps) {
		if ctx != nil {
			d.ctx = ctx
		}
	}
}

// WithJournal records workflow milestones.
func WithJournal(j Journal) Option {
	return func(d *deps) {
		if j != nil {
			d.journal = j
		}
	}
}

// WithLookup sets the text lookup for user-visible strings.
func WithLookup(fn i18n.Lookup) Option {
	return func(d *deps) {
		d.lookup = i18n.OrIdentity(fn)
	}
}

// WithAttemptIDs overrides the attempt/confirmation id generator.
func WithAttemptIDs(fn func() string) Option {
	return func(d *deps) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// WithRubricBinder overrides how a rubric is bound over the assessment fragment.
func WithRubricBinder(b RubricBinder) Option {
	return func(d *deps) {
		if b != nil {
			d.binder = b
		}
	}
}

// WithReenableOnDecline re-enables the response submit control when the
// confirmation is declined. The default leaves it disabled until the text changes.
func WithReenableOnDecline(enabled bool) Option {
	return func(d *deps) {
		d.reenableOnDecline = enabled
	}
}

// WithMinimumAssessments sets how many assessments complete the requirement.
func WithMinimumAssessments(n int) Option {
	return func(d *deps) {
		if n > 0 {
			d.minimumAssessed = n
		}
	}
}
