package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lucasnoah/repoboost/internal/vcs"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	authorRe    = regexp.MustCompile(`^[^<>]+ <[^<>@\s]+@[^<>\s]+>$`)
	boostNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

func isBuiltin(name string) bool {
	for _, b := range BuiltinBoosts {
		if b == name {
			return true
		}
	}
	return false
}

// validBranch accepts names git takes as-is; anything the gateway would
// rewrite is rejected so the recorded branch is the one committed to.
func validBranch(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.Contains(name, "..") && vcs.SanitizeBranch(name) == name
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if !validBranch(cfg.Branch) {
		errs = append(errs, ValidationError{Field: "branch", Message: fmt.Sprintf("invalid branch name %q", cfg.Branch)})
	}
	if !authorRe.MatchString(cfg.Author) {
		errs = append(errs, ValidationError{Field: "author", Message: fmt.Sprintf("%q is not of the form \"Name <email>\"", cfg.Author)})
	}
	validateDuration("verify_timeout", cfg.VerifyTimeout, &errs)
	validateDuration("apply_timeout", cfg.ApplyTimeout, &errs)

	// Build set of command boost names for reference validation
	commands := make(map[string]bool)
	for i, cb := range cfg.Commands {
		prefix := fmt.Sprintf("commands[%d]", i)
		switch {
		case cb.Name == "":
			errs = append(errs, ValidationError{Field: prefix + ".name", Message: "is required"})
		case !boostNameRe.MatchString(cb.Name):
			errs = append(errs, ValidationError{Field: prefix + ".name", Message: fmt.Sprintf("invalid boost name %q", cb.Name)})
		case isBuiltin(cb.Name):
			errs = append(errs, ValidationError{Field: prefix + ".name", Message: fmt.Sprintf("%q shadows a built-in boost", cb.Name)})
		case commands[cb.Name]:
			errs = append(errs, ValidationError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate command boost %q", cb.Name)})
		}
		if cb.Name != "" {
			commands[cb.Name] = true
		}
		if strings.TrimSpace(cb.Apply) == "" {
			errs = append(errs, ValidationError{Field: prefix + ".apply", Message: "is required"})
		}
		if strings.TrimSpace(cb.Verify) == "" {
			errs = append(errs, ValidationError{Field: prefix + ".verify", Message: "is required"})
		}
		if cb.Timeout != "" {
			validateDuration(prefix+".timeout", cb.Timeout, &errs)
		}
	}

	if len(cfg.Boosts) == 0 {
		errs = append(errs, ValidationError{Field: "boosts", Message: "at least one boost is required"})
	}
	seen := make(map[string]bool)
	for i, name := range cfg.Boosts {
		field := fmt.Sprintf("boosts[%d]", i)
		if !isBuiltin(name) && !commands[name] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown boost %q", name)})
		}
		if seen[name] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate boost %q", name)})
		}
		seen[name] = true
	}

	return errs
}

func validateDuration(field, value string, errs *[]ValidationError) {
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid duration %q", value)})
		return
	}
	if d <= 0 {
		*errs = append(*errs, ValidationError{Field: field, Message: "must be positive"})
	}
}
