// Package guards implements the write-tool validation guardrails used by
// the tool dispatcher (C9) before any mutation is committed to the graph
// (spec.md §4.8).
//
// Guards are composable checks. Each guard returns a result with a
// severity that determines how the dispatcher responds:
//
//   - HARD_BLOCK: the mutation is rejected outright.
//   - WARNING: the mutation proceeds but the response carries an advisory.
//
// Every write tool's argument set runs through Runner.Run before any
// entity or relationship is mutated; a single hard-block fails the whole
// call (and, for batches, the whole batch) with no partial mutation.
package guards

import (
	"context"
	"fmt"
	"strings"
)

// Severity indicates how a guard failure affects execution.
type Severity int

const (
	// Warning is advisory — operation proceeds, message included in response.
	Warning Severity = iota
	// HardBlock stops execution unconditionally; no mutation is applied.
	HardBlock
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "WARNING"
	case HardBlock:
		return "HARD_BLOCK"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of a single guard check.
type Result struct {
	GuardName string   `json:"guard_name"`
	Passed    bool     `json:"passed"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Remedy    string   `json:"remedy,omitempty"`
}

// Outcome is the aggregated result of running a GuardSet.
type Outcome struct {
	// Blocked is true if any HARD_BLOCK fired.
	Blocked bool `json:"blocked"`
	// Results contains all guard check results (both passed and failed).
	Results []Result `json:"results"`
}

// HardBlocks returns all hard block results.
func (o *Outcome) HardBlocks() []Result { return o.filterSeverity(HardBlock) }

// Warnings returns all warning results.
func (o *Outcome) Warnings() []Result { return o.filterSeverity(Warning) }

func (o *Outcome) filterSeverity(sev Severity) []Result {
	var out []Result
	for _, r := range o.Results {
		if !r.Passed && r.Severity == sev {
			out = append(out, r)
		}
	}
	return out
}

// FormatBlockMessage returns a human-readable message describing why the
// mutation was rejected.
func (o *Outcome) FormatBlockMessage() string {
	if !o.Blocked {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Mutation rejected by guards:\n")
	for _, r := range o.HardBlocks() {
		sb.WriteString(fmt.Sprintf("\n[HARD_BLOCK] %s: %s", r.GuardName, r.Message))
		if r.Remedy != "" {
			sb.WriteString(fmt.Sprintf("\n  Remedy: %s", r.Remedy))
		}
	}
	return sb.String()
}

// Guard is a single check that can be composed into guard sets.
type Guard interface {
	Name() string
	Check(ctx context.Context, gctx *GuardContext) Result
}

// GuardContext carries everything a write-tool guard needs to validate a
// candidate mutation, avoiding each guard independently querying the
// engine.
type GuardContext struct {
	// RelationshipType is the catalog name of the candidate relationship,
	// or "" when validating an entity-only mutation.
	RelationshipType string
	// RelationshipTypeKnown is true iff RelationshipType is a declared
	// member of the relationship catalog.
	RelationshipTypeKnown bool

	// SourceExists / TargetExists report whether src/tgt reference
	// entities already present in the engine.
	SourceExists bool
	TargetExists bool

	// SourceKind / TargetKind are the entity kinds of src/tgt, used for
	// domain/range checks.
	SourceKind string
	TargetKind string
	// DomainRangeOK is true iff (SourceKind, TargetKind) lies within the
	// relationship type's declared domain x range.
	DomainRangeOK bool

	// Weight / Confidence are the candidate's metadata values.
	Weight     float64
	Confidence float64

	// ID is the candidate relationship or entity id being validated.
	ID string
	// IDValid is true iff ID matches the required alphanumeric+`-_` format.
	IDValid bool

	// BatchSize is the number of items in the batch this candidate
	// belongs to (1 for non-batch calls).
	BatchSize int
	// MaxBatchSize is the configured ceiling (500 per spec.md §4.8).
	MaxBatchSize int
}

// GuardFunc is a function-based guard for simple checks.
type GuardFunc struct {
	name  string
	check func(ctx context.Context, gctx *GuardContext) Result
}

// NewGuardFunc creates a guard from a function.
func NewGuardFunc(name string, fn func(ctx context.Context, gctx *GuardContext) Result) *GuardFunc {
	return &GuardFunc{name: name, check: fn}
}

func (g *GuardFunc) Name() string { return g.name }
func (g *GuardFunc) Check(ctx context.Context, gctx *GuardContext) Result {
	return g.check(ctx, gctx)
}

// Pass returns a passing result for the given guard name.
func Pass(guardName string) Result {
	return Result{GuardName: guardName, Passed: true}
}

// Fail returns a failing result with the given severity and message.
func Fail(guardName string, severity Severity, message, remedy string) Result {
	return Result{GuardName: guardName, Passed: false, Severity: severity, Message: message, Remedy: remedy}
}

// Runner executes a set of guards and aggregates results.
type Runner struct{}

// NewRunner creates a guard runner.
func NewRunner() *Runner { return &Runner{} }

// Run executes guards against gctx and returns the aggregated outcome. A
// single HardBlock result sets Outcome.Blocked; callers must not mutate
// the graph when Blocked is true.
func (r *Runner) Run(ctx context.Context, gctx *GuardContext, guardList []Guard) *Outcome {
	outcome := &Outcome{}
	for _, g := range guardList {
		result := g.Check(ctx, gctx)
		outcome.Results = append(outcome.Results, result)
		if !result.Passed && result.Severity == HardBlock {
			outcome.Blocked = true
		}
	}
	return outcome
}
