package group

import (
	"github.com/kingrea/groupassess/internal/transport"
)

// Outcome classifies the result of a submit request.
type Outcome int

const (
	// OutcomeOK means the server accepted the request.
	OutcomeOK Outcome = iota
	// OutcomeTreatAsOK means the server rejected the request because an
	// earlier attempt already succeeded; the UI advances as on success.
	OutcomeTreatAsOK
	// OutcomeRetryable means the user must be told and allowed to retry.
	OutcomeRetryable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTreatAsOK:
		return "treat-as-ok"
	default:
		return "retryable"
	}
}

// Advances reports whether the outcome moves the workflow forward.
func (o Outcome) Advances() bool {
	return o == OutcomeOK || o == OutcomeTreatAsOK
}

// Result is a classified submit result.
type Result struct {
	Outcome Outcome
	Code    string
	Message string
}

// Policy maps remote error codes to outcomes.
type Policy struct {
	// TreatAsOK lists error codes that mean the request already took effect.
	TreatAsOK []string
}

var (
	// ResponsePolicy treats a duplicate submission as accepted.
	ResponsePolicy = Policy{TreatAsOK: []string{transport.CodeNoMulti}}
	// AssessmentPolicy has no recoverable codes.
	AssessmentPolicy = Policy{}
)

// Classify converts a transport result into a Result.
func (p Policy) Classify(err error) Result {
	if err == nil {
		return Result{Outcome: OutcomeOK}
	}
	terr, ok := transport.AsError(err)
	if !ok {
		return Result{Outcome: OutcomeRetryable, Message: err.Error()}
	}
	for _, code := range p.TreatAsOK {
		if terr.Code != "" && terr.Code == code {
			return Result{Outcome: OutcomeTreatAsOK, Code: terr.Code, Message: terr.Message}
		}
	}
	return Result{Outcome: OutcomeRetryable, Code: terr.Code, Message: terr.Message}
}
