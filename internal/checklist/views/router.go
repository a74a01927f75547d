// Package views routes a record's category to its active view and decides
// which documents each view displays.
package views

import (
	"strings"

	"docket/internal/checklist/catalog"
	"docket/internal/checklist/models"
)

// routeEntry is one row of the routing rule table. Exclusive entries come
// from placements whose only condition is the category equality; they take
// precedence because they exist solely to bind a category to a view.
type routeEntry struct {
	value     string
	viewID    string
	exclusive bool
}

// Route is the outcome of routing a category value. When Ambiguous is
// non-empty more than one view claimed the value; ViewID then holds the
// first claim in catalog order and the caller should surface a
// configuration warning rather than trust it silently.
type Route struct {
	ViewID    string
	Ok        bool
	Heuristic bool
	Ambiguous []string
}

// Router maps category values to view ids using an explicit, ordered,
// finite rule table derived from the catalog, with substring heuristics
// only as a last resort.
type Router struct {
	overflowID string
	entries    []routeEntry
}

// NewRouter builds the rule table by scanning the catalog for view
// placements that carry an equality condition on the category field.
func NewRouter(c *catalog.Catalog) *Router {
	r := &Router{overflowID: c.OverflowViewID}
	for _, doc := range c.Documents {
		for viewID, placement := range doc.Views {
			if viewID == c.OverflowViewID {
				continue
			}
			for _, cond := range placement.Conditions {
				if cond.Operator != models.OpEquals {
					continue
				}
				if !strings.EqualFold(cond.Property, c.CategoryField) {
					continue
				}
				r.entries = append(r.entries, routeEntry{
					value:     strings.TrimSpace(cond.Value),
					viewID:    viewID,
					exclusive: len(placement.Conditions) == 1,
				})
			}
		}
	}
	return r
}

// OverflowViewID returns the id of the catch-all view, which exists for
// every record regardless of routing.
func (r *Router) OverflowViewID() string {
	return r.overflowID
}

// Resolve routes a category value to the active view. Match order: exact
// value on exclusive entries, exact value on the remaining entries, then
// normalized substring overlap. No match leaves the active view undefined
// (Ok=false); the presentation layer owns the fallback policy.
func (r *Router) Resolve(categoryValue string) Route {
	value := strings.TrimSpace(categoryValue)
	if value == "" {
		return Route{}
	}

	if route := r.matchExact(value, true); route.Ok {
		return route
	}
	if route := r.matchExact(value, false); route.Ok {
		return route
	}
	return r.matchHeuristic(value)
}

func (r *Router) matchExact(value string, exclusive bool) Route {
	var viewIDs []string
	for _, entry := range r.entries {
		if entry.exclusive != exclusive || entry.value != value {
			continue
		}
		if !containsString(viewIDs, entry.viewID) {
			viewIDs = append(viewIDs, entry.viewID)
		}
	}
	return routeFrom(viewIDs, false)
}

// matchHeuristic falls back to normalized substring overlap between the
// category value and table values. Inherently ambiguous; kept only for
// records whose category spelling drifted from the catalog.
func (r *Router) matchHeuristic(value string) Route {
	normalized := catalog.NormalizedCategory(value)
	var viewIDs []string
	for _, entry := range r.entries {
		entryValue := catalog.NormalizedCategory(entry.value)
		if entryValue == "" {
			continue
		}
		if strings.Contains(normalized, entryValue) || strings.Contains(entryValue, normalized) {
			if !containsString(viewIDs, entry.viewID) {
				viewIDs = append(viewIDs, entry.viewID)
			}
		}
	}
	return routeFrom(viewIDs, true)
}

func routeFrom(viewIDs []string, heuristic bool) Route {
	switch len(viewIDs) {
	case 0:
		return Route{}
	case 1:
		return Route{ViewID: viewIDs[0], Ok: true, Heuristic: heuristic}
	default:
		return Route{ViewID: viewIDs[0], Ok: true, Heuristic: heuristic, Ambiguous: viewIDs}
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
