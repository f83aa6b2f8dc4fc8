package workflow

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Framework is the registry of workflows a record can be classified into.
// Construct one per process (or per test) and pass it by reference; there is
// no ambient global registry.
//
// The registry is populated at configuration time and read-only during
// classification traffic. Registration and classification are both guarded
// by a lock so dynamic reconfiguration is also safe.
type Framework struct {
	mu        sync.RWMutex
	workflows []*Workflow
	tracer    trace.Tracer
}

// FrameworkOption is a functional option for configuring a Framework
type FrameworkOption func(*Framework)

// WithTracer sets the OpenTelemetry tracer used for classification spans
func WithTracer(tracer trace.Tracer) FrameworkOption {
	return func(f *Framework) {
		f.tracer = tracer
	}
}

// NewFramework creates an empty workflow registry
func NewFramework(opts ...FrameworkOption) *Framework {
	f := &Framework{
		tracer: trace.NewNoopTracerProvider().Tracer("workflow-framework"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RegisterWorkflow appends a workflow to the registry. Registration order is
// the tie-break for equal priorities, so register deterministic
// configurations in a fixed order.
func (f *Framework) RegisterWorkflow(w *Workflow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflows = append(f.workflows, w)
}

// Workflows returns a snapshot of the registered workflows in registration
// order.
func (f *Framework) Workflows() []*Workflow {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Workflow, len(f.workflows))
	copy(out, f.workflows)
	return out
}

// Workflow returns the registered workflow with the given name, or nil
func (f *Framework) Workflow(name string) *Workflow {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, w := range f.workflows {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// Classify selects the accepting workflow with the highest priority and
// resolves the record's state within it.
//
// When no registered workflow accepts the record it fails with a no
// accepting workflow error; deployments avoid that by always registering a
// default workflow with empty conditions and lowest priority.
func (f *Framework) Classify(ctx context.Context, record Record) (*Workflow, State, error) {
	ctx, span := f.tracer.Start(ctx, "Framework.Classify")
	defer span.End()

	selected, err := f.ClassifyWorkflow(ctx, record)
	if err != nil {
		return nil, State{}, err
	}

	state, err := selected.Classify(record)
	if err != nil {
		return nil, State{}, err
	}

	span.SetAttributes(
		attribute.String("workflow.name", selected.Name),
		attribute.String("workflow.state", state.Name),
	)
	return selected, state, nil
}

// ClassifyWorkflow selects the accepting workflow with the highest priority
// without resolving the state component.
func (f *Framework) ClassifyWorkflow(ctx context.Context, record Record) (*Workflow, error) {
	_, span := f.tracer.Start(ctx, "Framework.ClassifyWorkflow")
	defer span.End()

	f.mu.RLock()
	defer f.mu.RUnlock()

	var selected *Workflow
	for _, w := range f.workflows {
		ok, err := w.Accepts(record)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		// strict > keeps the first registered among equal priorities
		if selected == nil || w.Priority > selected.Priority {
			selected = w
		}
	}
	if selected == nil {
		return nil, NewNoAcceptingWorkflowError()
	}
	return selected, nil
}
