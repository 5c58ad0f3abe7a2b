// Package engine drives boosts through check → apply → verify → commit,
// recording every step in the project's state so an interrupted or failed
// run can be resumed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/db"
	"github.com/lucasnoah/repoboost/internal/state"
	"github.com/lucasnoah/repoboost/internal/vcs"
	"github.com/lucasnoah/repoboost/internal/verify"
)

// ReasonNoChanges is recorded when a verified boost left nothing to commit.
const ReasonNoChanges = "apply produced no changes"

// Gateway is the version-control surface the pipeline needs.
type Gateway interface {
	TopLevel(ctx context.Context) (string, error)
	OriginURL(ctx context.Context) (string, error)
	AssertClean(ctx context.Context) error
	EnsureBranch(ctx context.Context, name string) error
	CommitAll(ctx context.Context, message string) (string, error)
}

// Store persists boost records.
type Store interface {
	Load(id state.Identity) (*state.PipelineState, error)
	Append(id state.Identity, rec state.BoostRecord, meta state.Meta) (*state.PipelineState, error)
}

// Verifier runs a boost's self-check.
type Verifier interface {
	Run(ctx context.Context, dir string, chk verify.Check) (*verify.Result, error)
}

// EventSink receives run history. Failures are logged and never stop a run.
type EventSink interface {
	StartRun(ctx context.Context, r db.Run) error
	LogBoostEvent(ctx context.Context, e db.BoostEvent) error
	FinishRun(ctx context.Context, runID string, result string, failedBoost string, reason string) error
}

// Pipeline sequences boosts against one repository.
type Pipeline struct {
	gw       Gateway
	store    Store
	verifier Verifier
	events   EventSink
	logger   *slog.Logger
	progress io.Writer // live progress output; nil = silent
	now      func() time.Time
	newRunID func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithEvents mirrors every run and boost event into sink.
func WithEvents(sink EventSink) Option {
	return func(p *Pipeline) { p.events = sink }
}

// WithProgress sets a writer for live progress output (e.g. os.Stderr).
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// WithClock overrides time.Now (for testing).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunIDs overrides run ID generation (for testing).
func WithRunIDs(gen func() string) Option {
	return func(p *Pipeline) { p.newRunID = gen }
}

// New creates a pipeline.
func New(gw Gateway, store Store, verifier Verifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		gw:       gw,
		store:    store,
		verifier: verifier,
		now:      time.Now,
		newRunID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// logf prints a progress line if a progress writer is configured.
func (p *Pipeline) logf(format string, args ...any) {
	if p.progress != nil {
		fmt.Fprintf(p.progress, "  → "+format+"\n", args...)
	}
}

// RunOpts configures a pipeline run.
type RunOpts struct {
	Branch string
	Boosts []boost.Boost
}

// run holds what one Run call threads through its boosts.
type run struct {
	id      string
	project state.Identity
	root    string
	branch  string
	state   *state.PipelineState
	result  *Result
}

// Run drives every boost in order. Boost failures end the run with an
// Aborted result and a nil error; infrastructure failures (dirty tree,
// branch conflict, corrupt or unsavable state, cancellation) are returned
// as errors.
func (p *Pipeline) Run(ctx context.Context, opts RunOpts) (*Result, error) {
	if opts.Branch == "" {
		return nil, fmt.Errorf("no working branch given")
	}
	if vcs.SanitizeBranch(opts.Branch) != opts.Branch {
		return nil, fmt.Errorf("invalid branch name %q", opts.Branch)
	}
	if err := checkNames(opts.Boosts); err != nil {
		return nil, err
	}

	root, id, err := ResolveProject(ctx, p.gw)
	if err != nil {
		return nil, err
	}
	st, err := p.store.Load(id)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if err := p.gw.AssertClean(ctx); err != nil {
		return nil, err
	}
	if err := p.gw.EnsureBranch(ctx, opts.Branch); err != nil {
		return nil, err
	}

	r := &run{
		id:      p.newRunID(),
		project: id,
		root:    root,
		branch:  opts.Branch,
		state:   st,
		result: &Result{
			Identity:  id,
			RepoPath:  root,
			Branch:    opts.Branch,
			Status:    StatusCompleted,
			Outcomes:  []Outcome{},
			StartedAt: p.now(),
		},
	}
	r.result.RunID = r.id
	log := p.logger.With("run_id", r.id, "project", string(id))
	log.Info("pipeline started", "repo", root, "branch", opts.Branch, "boosts", len(opts.Boosts))
	p.logf("project %s on branch %s (%d boosts)", id, opts.Branch, len(opts.Boosts))
	p.emit(ctx, log, func(ctx context.Context, sink EventSink) error {
		return sink.StartRun(ctx, db.Run{RunID: r.id, Project: string(id), RepoPath: root, Branch: opts.Branch, StartedAt: r.result.StartedAt})
	})

	for _, b := range opts.Boosts {
		if err := ctx.Err(); err != nil {
			return p.finish(ctx, log, r, fmt.Errorf("run interrupted before %s: %w", b.Name(), err))
		}
		out, err := p.runBoost(ctx, log.With("boost", b.Name()), r, b)
		if out.Kind != "" {
			r.result.Outcomes = append(r.result.Outcomes, out)
		}
		if out.Kind == OutcomeFailed {
			r.result.Status = StatusAborted
			r.result.FailedBoost = out.Boost
			r.result.Reason = out.Reason
		}
		if err != nil {
			return p.finish(ctx, log, r, err)
		}
		if out.Kind == OutcomeFailed {
			break
		}
	}
	return p.finish(ctx, log, r, nil)
}

func (p *Pipeline) finish(ctx context.Context, log *slog.Logger, r *run, runErr error) (*Result, error) {
	res := r.result
	res.FinishedAt = p.now()
	outcome := string(res.Status)
	reason := res.Reason
	if runErr != nil {
		outcome = "error"
		reason = runErr.Error()
	}
	p.emit(ctx, log, func(ctx context.Context, sink EventSink) error {
		return sink.FinishRun(ctx, r.id, outcome, res.FailedBoost, reason)
	})

	elapsed := res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond)
	switch {
	case runErr != nil:
		log.Error("pipeline stopped", "error", runErr, "duration", elapsed)
		p.logf("stopped: %v", runErr)
	case res.Completed():
		log.Info("pipeline completed", "commits", res.Commits(), "duration", elapsed)
		p.logf("completed with %d new commit(s)", res.Commits())
	default:
		log.Warn("pipeline aborted", "failed_boost", res.FailedBoost, "duration", elapsed)
		p.logf("aborted at %s", res.FailedBoost)
	}
	return res, runErr
}

// runBoost drives one boost. A non-nil error means the run must stop
// without treating the boost as a recorded failure, except for
// ErrNothingToCommit which is recorded first.
func (p *Pipeline) runBoost(ctx context.Context, log *slog.Logger, r *run, b boost.Boost) (Outcome, error) {
	name := b.Name()
	start := p.now()
	if r.state.Satisfied(name) {
		log.Debug("already applied")
		p.logf("%s: already applied", name)
		out := Outcome{Boost: name, Kind: OutcomeSatisfied}
		p.emitOutcome(ctx, log, r, out)
		return out, nil
	}

	proj := boost.Project{Root: r.root}

	pre, err := b.CheckPreconditions(ctx, proj)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, interrupted(name, ctx.Err())
		}
		return p.fail(ctx, log, r, name, start, &boost.Failure{Boost: name, Step: "preconditions", Err: err}, "")
	}
	if !pre.Applicable {
		p.logf("%s: skipped (%s)", name, pre.Reason)
		return p.record(ctx, log, r, Outcome{Boost: name, Kind: OutcomeSkipped, Reason: pre.Reason, Duration: p.now().Sub(start)})
	}

	p.logf("%s: applying", name)
	if err := b.Apply(ctx, proj); err != nil {
		if ctx.Err() != nil {
			return Outcome{}, interrupted(name, ctx.Err())
		}
		return p.fail(ctx, log, r, name, start, &boost.Failure{Boost: name, Step: "apply", Err: err}, "")
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, interrupted(name, err)
	}

	chk := b.Verification(proj)
	p.logf("%s: verifying with %q", name, chk.Command)
	res, err := p.verifier.Run(ctx, r.root, chk)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, interrupted(name, ctx.Err())
		}
		return p.fail(ctx, log, r, name, start, &boost.Failure{Boost: name, Step: "verify", Err: err}, "")
	}
	if !res.Verified {
		vf := boost.NewVerificationFailure(name, res)
		return p.fail(ctx, log, r, name, start, vf, vf.Reason())
	}
	log.Debug("verified", "check", res.Check, "duration", res.Duration.Round(time.Millisecond))

	sha, err := p.gw.CommitAll(ctx, b.CommitMessage(proj))
	if errors.Is(err, vcs.ErrNothingToCommit) {
		out, recErr := p.record(ctx, log, r, Outcome{Boost: name, Kind: OutcomeFailed, Reason: ReasonNoChanges, Duration: p.now().Sub(start), Err: err})
		if recErr != nil {
			return out, recErr
		}
		return out, fmt.Errorf("%s: %s: %w", name, ReasonNoChanges, err)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: checkpoint commit: %w", name, err)
	}

	p.logf("%s: committed %s", name, shortSHA(sha))
	return p.record(ctx, log, r, Outcome{Boost: name, Kind: OutcomeApplied, Checkpoint: sha, Duration: p.now().Sub(start)})
}

func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, r *run, name string, start time.Time, err error, reason string) (Outcome, error) {
	if reason == "" {
		reason = err.Error()
	}
	p.logf("%s: failed: %v", name, err)
	return p.record(ctx, log, r, Outcome{Boost: name, Kind: OutcomeFailed, Reason: reason, Duration: p.now().Sub(start), Err: err})
}

// record persists the outcome before anything else happens, so an
// interruption afterwards cannot lose it.
func (p *Pipeline) record(ctx context.Context, log *slog.Logger, r *run, out Outcome) (Outcome, error) {
	rec := state.BoostRecord{
		Boost:     out.Boost,
		Status:    out.Kind.recordStatus(),
		Reason:    out.Reason,
		RunID:     r.id,
		Timestamp: p.now(),
	}
	if out.Checkpoint != "" {
		sha := out.Checkpoint
		rec.Checkpoint = &sha
	}
	st, err := p.store.Append(r.project, rec, state.Meta{RepoPath: r.root, Branch: r.branch})
	if err != nil {
		return Outcome{}, fmt.Errorf("record %s: %w", out.Boost, err)
	}
	r.state = st

	attrs := []any{"status", rec.Status, "duration", out.Duration.Round(time.Millisecond)}
	if out.Checkpoint != "" {
		attrs = append(attrs, "checkpoint", out.Checkpoint)
	}
	if out.Kind == OutcomeFailed {
		log.Warn("boost failed", append(attrs, "reason", firstLine(out.Reason))...)
	} else {
		log.Info("boost finished", attrs...)
	}
	p.emitOutcome(ctx, log, r, out)
	return out, nil
}

func (p *Pipeline) emitOutcome(ctx context.Context, log *slog.Logger, r *run, out Outcome) {
	p.emit(ctx, log, func(ctx context.Context, sink EventSink) error {
		return sink.LogBoostEvent(ctx, db.BoostEvent{
			RunID:      r.id,
			Project:    string(r.project),
			Boost:      out.Boost,
			Event:      string(out.Kind),
			Reason:     out.Reason,
			Checkpoint: out.Checkpoint,
			DurationMs: out.Duration.Milliseconds(),
			Timestamp:  p.now(),
		})
	})
}

// emit writes to the event sink, if any. History must still be written
// when the run itself was cancelled.
func (p *Pipeline) emit(ctx context.Context, log *slog.Logger, fn func(context.Context, EventSink) error) {
	if p.events == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), p.events); err != nil {
		log.Warn("run history write failed", "error", err)
	}
}

// ResolveProject returns the repository root and the identity its state is
// kept under: the origin remote when there is one, else the root path.
func ResolveProject(ctx context.Context, gw Gateway) (string, state.Identity, error) {
	root, err := gw.TopLevel(ctx)
	if err != nil {
		return "", "", err
	}
	origin, err := gw.OriginURL(ctx)
	if errors.Is(err, vcs.ErrNoOrigin) {
		return root, state.IdentityFor("", root), nil
	}
	if err != nil {
		return "", "", err
	}
	return root, state.IdentityFor(origin, root), nil
}

func checkNames(boosts []boost.Boost) error {
	seen := make(map[string]bool, len(boosts))
	for i, b := range boosts {
		if b == nil {
			return fmt.Errorf("boost %d is nil", i)
		}
		name := b.Name()
		if name == "" {
			return fmt.Errorf("boost %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate boost %q in run list", name)
		}
		seen[name] = true
	}
	return nil
}

func interrupted(name string, err error) error {
	return fmt.Errorf("%s interrupted: %w", name, err)
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
