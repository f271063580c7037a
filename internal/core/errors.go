package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on propagation policy
// without string-matching error messages.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota
	// KindBadConfig covers a malformed looper config, pipeline interface,
	// or compute config. Fatal: abort the run immediately.
	KindBadConfig
	// KindBadResourceSpec covers a missing default row, missing
	// max_file_size, or a negative size. Fatal.
	KindBadResourceSpec
	// KindBadInput covers a negative input size or contradictory CLI
	// flags. Fatal.
	KindBadInput
	// KindTemplateUndefined means a command-template variable was not in
	// the namespaces. Local: the sample is marked not-rendered, the pool
	// continues.
	KindTemplateUndefined
	// KindBadHookResult means a pre-submit hook returned something other
	// than a two-level mapping. Fatal for the current pool.
	KindBadHookResult
	// KindHookCommandFailed means a pre-submit command exited non-zero or
	// produced non-JSON stdout. Fatal for the current pool.
	KindHookCommandFailed
	// KindJobSubmissionFailed means the submission-command subprocess
	// exited non-zero. Pool-reset: record failed samples, continue.
	KindJobSubmissionFailed
	// KindSampleValidationFailed means a sample failed its pipeline's
	// input schema. Fatal: abort the run.
	KindSampleValidationFailed
	// KindMissingPipelineInterface means a sample was selected for a
	// registry-PEP run without a sample PI. Fatal.
	KindMissingPipelineInterface
	// KindInterrupted means SIGINT/SIGTERM reached submission teardown.
	// Fatal: the run stops after teardown rather than draining the
	// remaining conductors.
	KindInterrupted
)

func (k Kind) String() string {
	switch k {
	case KindBadConfig:
		return "BadConfig"
	case KindBadResourceSpec:
		return "BadResourceSpec"
	case KindBadInput:
		return "BadInput"
	case KindTemplateUndefined:
		return "TemplateUndefined"
	case KindBadHookResult:
		return "BadHookResult"
	case KindHookCommandFailed:
		return "HookCommandFailed"
	case KindJobSubmissionFailed:
		return "JobSubmissionFailed"
	case KindSampleValidationFailed:
		return "SampleValidationFailed"
	case KindMissingPipelineInterface:
		return "MissingPipelineInterface"
	case KindInterrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// Fatal reports whether a condition of this kind must abort the entire
// run immediately.
func (k Kind) Fatal() bool {
	switch k {
	case KindBadConfig, KindBadResourceSpec, KindBadInput, KindSampleValidationFailed, KindMissingPipelineInterface, KindInterrupted:
		return true
	default:
		return false
	}
}

// Error is the core package's wrapped error type. Op names the operation
// that failed (e.g. "conductor.add_sample"); Err is the underlying cause,
// if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, SomeKind) work by comparing Kind values when the
// target is itself a bare Kind-tagged *Error with a nil Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// newErr constructs an *Error, wrapping err if non-nil.
func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap annotates err with a Kind and operation name.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return newErr(kind, op, err)
}

// Errorf builds a new *Error of the given kind with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) error {
	return newErr(kind, op, fmt.Errorf(format, args...))
}

// KindOf extracts the Kind from err, if it (or something it wraps) is a
// *Error. Returns KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
