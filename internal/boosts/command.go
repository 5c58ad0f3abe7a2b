package boosts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/config"
	"github.com/lucasnoah/repoboost/internal/verify"
)

// Command is a boost declared in the run configuration as plain shell
// commands.
type Command struct {
	tb   *Toolbox
	spec config.CommandBoost
}

func (c *Command) Name() string {
	return c.spec.Name
}

func (c *Command) Description() string {
	return "custom: " + c.spec.Apply
}

func (c *Command) CheckPreconditions(ctx context.Context, p boost.Project) (boost.Precondition, error) {
	for _, req := range c.spec.Requires {
		matches, err := filepath.Glob(filepath.Join(p.Root, req))
		if err != nil {
			return boost.Precondition{}, fmt.Errorf("requires %q: %w", req, err)
		}
		if len(matches) == 0 {
			return boost.NotApplicable(fmt.Sprintf("%s not found", req)), nil
		}
	}
	if c.spec.SkipIfExists != "" && fileExists(p.Root, c.spec.SkipIfExists) {
		return boost.NotApplicable(c.spec.SkipIfExists + " already exists"), nil
	}
	return boost.Ready(), nil
}

func (c *Command) Apply(ctx context.Context, p boost.Project) error {
	return c.tb.run(ctx, p.Root, c.spec.Apply)
}

func (c *Command) Verification(p boost.Project) verify.Check {
	return verify.Check{Name: c.spec.Name, Command: c.spec.Verify, Timeout: c.spec.TimeoutDuration()}
}

func (c *Command) CommitMessage(p boost.Project) string {
	if c.spec.Message != "" {
		return c.spec.Message
	}
	return fmt.Sprintf("Add %s", c.spec.Name)
}
