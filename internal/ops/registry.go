// Package ops defines the operation registry: the closed table mapping
// each operation name to its credit cost, parameter documentation, and
// handler. The registry is immutable after startup; the dispatcher uses
// it to fail fast on unknown names before any authentication work.
package ops

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// Request carries the uploaded documents and form parameters for one
// operation invocation.
type Request struct {
	Files  [][]byte
	Params url.Values
}

// Param returns the named form parameter, "" when absent.
func (r *Request) Param(name string) string { return r.Params.Get(name) }

// Result is the outcome of a handler. Exactly one of Bytes or JSON is
// set: Bytes for binary artifacts, JSON for structured verdicts.
type Result struct {
	Bytes       []byte
	ContentType string
	Filename    string
	JSON        any
	Message     string
}

// Handler is the pure transform function implementing one operation.
type Handler func(ctx context.Context, req *Request) (*Result, error)

// Operation describes one registered operation.
type Operation struct {
	Name    string
	Cost    int64
	Usage   string
	Handler Handler
}

// Registry resolves operation names. Immutable after construction.
type Registry struct {
	ops   map[string]*Operation
	names []string
}

func newRegistry(operations []Operation) (*Registry, error) {
	r := &Registry{ops: make(map[string]*Operation, len(operations))}
	for i := range operations {
		op := &operations[i]
		if op.Name == "" || op.Cost <= 0 || op.Handler == nil || op.Usage == "" {
			return nil, fmt.Errorf("operation %q: incomplete registration", op.Name)
		}
		if _, dup := r.ops[op.Name]; dup {
			return nil, fmt.Errorf("operation %q: registered twice", op.Name)
		}
		r.ops[op.Name] = op
		r.names = append(r.names, op.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Resolve looks up an operation by name.
func (r *Registry) Resolve(name string) (*Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Names returns all operation names in sorted order.
func (r *Registry) Names() []string { return r.names }

// Costs returns the name → credit cost table.
func (r *Registry) Costs() map[string]int64 {
	costs := make(map[string]int64, len(r.ops))
	for name, op := range r.ops {
		costs[name] = op.Cost
	}
	return costs
}

// Usage returns the name → parameter documentation table.
func (r *Registry) Usage() map[string]string {
	usage := make(map[string]string, len(r.ops))
	for name, op := range r.ops {
		usage[name] = op.Usage
	}
	return usage
}
