package model

import "fmt"

// ParseError reports a malformed model: it carries the offending
// input (filename, map or array description) and a human-readable
// cause. It is never retried internally.
type ParseError struct {
	Input string
	Cause string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad formed model from %q: %s", e.Input, e.Cause)
}

// ValidationError reports invalid call-site arguments; it is raised
// before any computation begins.
type ValidationError struct {
	Param string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Cause)
}

// ResolutionError reports that the solver was invoked but could not
// produce a trustworthy answer: exceeded timeout, non-convergence
// after the precision retry, a verification mismatch, or an
// unclassified solver failure.
type ResolutionError struct {
	ModelName string
	Cause     string
	Equation  string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolution error with model %q: %s", e.ModelName, e.Cause)
	if e.Equation != "" {
		msg += fmt.Sprintf(" (system: %s)", e.Equation)
	}
	return msg
}

// UnsolvableError reports that the solver completed within its time
// and precision budget but found no real, positive solution. It is a
// more specific signal than ResolutionError: the model truly has no
// physically valid solution within solver capability.
type UnsolvableError struct {
	ModelName string
	Equation  string
}

func (e *UnsolvableError) Error() string {
	msg := fmt.Sprintf("model %q has no solution", e.ModelName)
	if e.Equation != "" {
		msg += fmt.Sprintf(" (system: %s)", e.Equation)
	}
	return msg
}
