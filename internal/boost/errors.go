package boost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasnoah/repoboost/internal/verify"
)

// ErrTimeout matches a VerificationFailure caused by the check's deadline.
var ErrTimeout = errors.New("verification timed out")

// Failure is a boost that could not be applied, or whose preconditions
// could not be inspected.
type Failure struct {
	Boost string
	Step  string // "preconditions" or "apply"
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", f.Boost, f.Step, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// VerificationFailure is a boost whose self-check did not pass.
type VerificationFailure struct {
	Boost    string
	Check    string
	ExitCode int
	TimedOut bool
	Output   string
}

// NewVerificationFailure builds a failure from an unverified check result.
func NewVerificationFailure(boostName string, res *verify.Result) *VerificationFailure {
	return &VerificationFailure{
		Boost:    boostName,
		Check:    res.Check,
		ExitCode: res.ExitCode,
		TimedOut: res.TimedOut,
		Output:   res.Output,
	}
}

func (f *VerificationFailure) Error() string {
	if f.TimedOut {
		return fmt.Sprintf("%s: verification %q timed out", f.Boost, f.Check)
	}
	return fmt.Sprintf("%s: verification %q failed with exit code %d", f.Boost, f.Check, f.ExitCode)
}

// Is lets errors.Is(err, ErrTimeout) single out timeouts.
func (f *VerificationFailure) Is(target error) bool {
	return target == ErrTimeout && f.TimedOut
}

// Reason is the text recorded in the boost's state record: the error line
// followed by the last lines of the tool's output.
func (f *VerificationFailure) Reason() string {
	msg := f.Error()
	if tail := lastLines(f.Output, 20); tail != "" {
		msg += "\n" + tail
	}
	return msg
}

func lastLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
