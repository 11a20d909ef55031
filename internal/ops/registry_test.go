package ops

import (
	"testing"
)

// The published cost table is a compatibility contract: clients budget
// against these exact numbers.
var wantCosts = map[string]int64{
	"merge":            2,
	"split":            2,
	"rotate":           1,
	"compress":         3,
	"watermark":        2,
	"protect":          2,
	"unlock":           3,
	"extract_pages":    1,
	"add_page_numbers": 1,
	"delete_pages":     1,
	"reorder_pages":    1,
	"sign":             3,
	"add_initials":     2,
	"add_date_stamp":   1,
	"add_certificate":  5,
	"verify":           1,
	"fill":             3,
	"create_form":      5,
	"flatten_form":     2,
	"extract_fields":   1,
	"images-to-pdf":    2,
	"html-to-pdf":      3,
	"markdown-to-pdf":  2,
	"text-to-pdf":      1,
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Deps{})
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return r
}

func TestRegistry_CostTable(t *testing.T) {
	r := newTestRegistry(t)
	costs := r.Costs()

	if len(costs) != len(wantCosts) {
		t.Errorf("registry has %d operations, want %d", len(costs), len(wantCosts))
	}
	for name, want := range wantCosts {
		got, ok := costs[name]
		if !ok {
			t.Errorf("operation %q missing from registry", name)
			continue
		}
		if got != want {
			t.Errorf("cost[%q] = %d, want %d", name, got, want)
		}
	}
}

func TestRegistry_ClosedSet(t *testing.T) {
	r := newTestRegistry(t)

	// Every declared operation has a handler and usage text.
	for _, name := range r.Names() {
		op, ok := r.Resolve(name)
		if !ok {
			t.Fatalf("Resolve(%q) failed for a listed name", name)
		}
		if op.Handler == nil {
			t.Errorf("operation %q has no handler", name)
		}
		if op.Usage == "" {
			t.Errorf("operation %q has no usage text", name)
		}
		if op.Cost <= 0 {
			t.Errorf("operation %q has non-positive cost %d", name, op.Cost)
		}
	}
}

func TestRegistry_UnknownName(t *testing.T) {
	r := newTestRegistry(t)
	if _, ok := r.Resolve("transmogrify"); ok {
		t.Error("Resolve must fail for unregistered names")
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := newTestRegistry(t)
	names := r.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}
