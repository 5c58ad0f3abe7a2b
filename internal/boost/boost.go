// Package boost defines the contract every tool integration implements.
//
// A boost moves a repository through check → apply → verify. The pipeline in
// internal/engine drives that protocol and commits the result; a boost never
// commits on its own and only writes inside the project root.
package boost

import (
	"context"

	"github.com/lucasnoah/repoboost/internal/verify"
)

// Project is the repository a boost operates on.
type Project struct {
	Root string // absolute path of the repository root
}

// Precondition is the result of inspecting a project before applying a boost.
type Precondition struct {
	Applicable bool
	Reason     string // set when not applicable
}

// Ready means the boost should be applied.
func Ready() Precondition {
	return Precondition{Applicable: true}
}

// NotApplicable means the boost has nothing to do here. It is not an error.
func NotApplicable(reason string) Precondition {
	return Precondition{Reason: reason}
}

// Boost is one self-contained integration of an external development tool.
type Boost interface {
	// Name identifies the boost in state records; unique within a run.
	Name() string
	// CheckPreconditions inspects the project without changing it.
	CheckPreconditions(ctx context.Context, p Project) (Precondition, error)
	// Apply changes the working tree. It must be safe to run again after a
	// failed attempt and must leave hand-written content alone.
	Apply(ctx context.Context, p Project) error
	// Verification returns the check that proves the tool works after Apply.
	Verification(p Project) verify.Check
	// CommitMessage summarises the change for the checkpoint commit.
	CommitMessage(p Project) string
}
