package atp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emergent-company/orgtwin/internal/metrics"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/state"
)

// Dispatcher runs the per-tool state machine described by spec.md §4.8:
//
//	Ready -> Authorise -> RequireGraph -> ValidateArgs -> Execute
//	      -> Serialise -> Return -> Ready
//	any stage may fail -> ErrorReply -> Ready
//
// Authorise is a no-op hook point: spec.md defines no auth scheme for the
// single-process core (spec.md §1 Non-goals exclude distributed/
// multi-tenant operation), so every call is authorised unconditionally.
type Dispatcher struct {
	Registry *Registry
	State    *state.Service
	Metrics  *metrics.Registry
}

// New constructs a Dispatcher over the fixed tool registry.
func New(svc *state.Service, metricsReg *metrics.Registry) *Dispatcher {
	return &Dispatcher{Registry: BuildRegistry(), State: svc, Metrics: metricsReg}
}

// Call runs one tool invocation end to end and always returns a non-nil
// wire value: either a Response or an ErrorResponse, never both.
func (d *Dispatcher) Call(ctx context.Context, req Request) (result any, isError bool) {
	start := time.Now()
	tool := d.Registry.Get(req.Tool)

	defer func() {
		if d.Metrics == nil || tool == nil {
			return
		}
		outcome := metrics.OutcomeOK
		if isError {
			outcome = metrics.OutcomeError
		}
		d.Metrics.ObserveToolCall(tool.Name(), outcome, time.Since(start))
	}()

	// Authorise
	if tool == nil {
		return NewErrorResponse(model.NewError(model.ErrValidation, "unknown tool %q", req.Tool)), true
	}

	// ValidateArgs: decode into a generic map; tool-specific field
	// validation happens inside each handler via guards.
	var args map[string]any
	if len(req.Arguments) > 0 {
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return NewErrorResponse(model.Wrap(model.ErrValidation, err, "parsing arguments")), true
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	// Shared-resource policy: every tool holds the call lock for its
	// whole duration, exclusive for writes, shared for reads.
	if tool.Classification() == Write {
		d.State.LockCall()
		defer d.State.UnlockCall()
	} else {
		d.State.RLockCall()
		defer d.State.RUnlockCall()
	}

	// RequireGraph: load_graph is the one tool that legitimately runs
	// without an existing graph, since it is how one gets installed.
	if tool.Name() != "load_graph" {
		if _, _, err := d.State.RequireGraph(); err != nil {
			return NewErrorResponse(err), true
		}
	}

	// Execute + Serialise
	value, err := tool.Execute(ctx, d, args)
	if err != nil {
		return NewErrorResponse(err), true
	}
	return Response{Result: value}, false
}
