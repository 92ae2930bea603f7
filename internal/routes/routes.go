// Package routes computes the output location of every content unit and
// guarantees the mapping is bijective: one route per unit, no collisions.
package routes

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Route is one output location in the published site.
type Route struct {
	Path       string // URL path, e.g. "/notes/binding-lifetimes/"
	OutputFile string // Slash-separated file path under the output directory
	Source     string // Relative path of the originating unit
	Permalink  bool   // True when the route came from a permalink override
}

// Table maps routes to their source units. Insertion order follows the
// (sorted) unit order, so listings and collision diagnostics are
// deterministic.
type Table struct {
	byPath   map[string]*Route
	bySource map[string]*Route
	ordered  []*Route
}

// NewTable returns an empty route table.
func NewTable() *Table {
	return &Table{
		byPath:   make(map[string]*Route),
		bySource: make(map[string]*Route),
	}
}

// Build computes a route for every unit and inserts it into a fresh table.
// Insertion is strictly sequential over the given order; the first collision
// aborts with an error naming both source files. Silent precedence would
// make output depend on enumeration order.
func Build(units []content.Unit) (*Table, error) {
	table := NewTable()
	for i := range units {
		route := routeFor(&units[i])
		if err := table.insert(route); err != nil {
			return nil, err
		}
	}

	slog.Debug("Route table built", logfields.Count(table.Len()))
	return table, nil
}

func (t *Table) insert(r *Route) error {
	if existing, ok := t.byPath[r.Path]; ok {
		return errors.RouteCollision(r.Path, existing.Source, r.Source)
	}
	t.byPath[r.Path] = r
	t.bySource[r.Source] = r
	t.ordered = append(t.ordered, r)
	return nil
}

// Lookup resolves a site-absolute path to a route. Besides exact matches it
// accepts directory routes without their trailing slash and explicit
// index.html references.
func (t *Table) Lookup(path string) (*Route, bool) {
	if r, ok := t.byPath[path]; ok {
		return r, true
	}
	if strings.HasSuffix(path, "/") {
		if r, ok := t.byPath[strings.TrimSuffix(path, "/")]; ok {
			return r, true
		}
	} else {
		if r, ok := t.byPath[path+"/"]; ok {
			return r, true
		}
	}
	if trimmed, found := strings.CutSuffix(path, "index.html"); found {
		if r, ok := t.byPath[trimmed]; ok {
			return r, true
		}
	}
	return nil, false
}

// BySource returns the route of a unit by its relative path.
func (t *Table) BySource(relativePath string) (*Route, bool) {
	r, ok := t.bySource[relativePath]
	return r, ok
}

// Routes returns all routes in insertion order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Len returns the number of routes in the table.
func (t *Table) Len() int {
	return len(t.ordered)
}
