// Package transport performs the named remote operations of the group
// workflow against the platform's block handlers.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// CodeNoMulti is returned when a submission already exists for the part.
const CodeNoMulti = "ENOMULTI"

// Fragment names accepted by Render.
const (
	FragmentSubmission = "group_submission"
	FragmentAssessment = "group_assessment"
	FragmentGrade      = "grade"
)

// Assessment is the scored rubric sent for one group member.
type Assessment struct {
	SelectedOptions   map[string]string `json:"options_selected"`
	CriterionFeedback map[string]string `json:"criterion_feedback"`
	OverallFeedback   string            `json:"overall_feedback"`
}

// Client is the narrow contract controllers depend on.
type Client interface {
	Render(ctx context.Context, name string) (string, error)
	SubmitResponse(ctx context.Context, text string, ordinal int) error
	SubmitAssessment(ctx context.Context, a Assessment) error
	JoinGroup(ctx context.Context, name, email string) (string, error)
}

// Error is a failure reported by a remote operation. Code and Message are
// both optional.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Code != "":
		return e.Code
	case e.Message != "":
		return e.Message
	default:
		return "transport: request failed"
	}
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var terr *Error
	if errors.As(err, &terr) {
		return terr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given remote error code.
func IsCode(err error, code string) bool {
	terr, ok := AsError(err)
	return ok && terr.Code == code
}
