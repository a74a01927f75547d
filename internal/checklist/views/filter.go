package views

import (
	"sort"
	"strings"

	"docket/internal/checklist/models"
	"docket/internal/checklist/rules"
)

// Filter decides which documents appear in the active view versus the
// overflow view. Documents with empty names are malformed catalog entries
// and are skipped from every derived list rather than aborting evaluation.
type Filter struct {
	overflowID string
}

// NewFilter creates a filter bound to the catalog's overflow view.
func NewFilter(overflowID string) *Filter {
	return &Filter{overflowID: overflowID}
}

// Active returns the documents the active view displays: members of that
// view whose conditions are met there, plus members that are already both
// required and provided, so completed items stay visible after their
// trigger condition stops holding. With no active view the result is
// empty.
func (f *Filter) Active(docs []*models.Document, activeViewID string, bag models.PropertyBag) []*models.Document {
	if activeViewID == "" {
		return nil
	}
	var visible []*models.Document
	for _, doc := range docs {
		if doc.Name == "" {
			continue
		}
		if _, ok := doc.Views[activeViewID]; !ok {
			continue
		}
		if rules.MetInView(doc, activeViewID, bag) || (doc.Required && doc.Provided) {
			visible = append(visible, doc)
		}
	}
	f.sortForView(visible, activeViewID)
	return visible
}

// Overflow returns the catch-all view's documents: anything flagged
// (required or provided) that the active view has not claimed via met
// conditions, plus active-view members whose conditions are currently
// unmet.
func (f *Filter) Overflow(docs []*models.Document, activeViewID string, bag models.PropertyBag) []*models.Document {
	var visible []*models.Document
	for _, doc := range docs {
		if doc.Name == "" {
			continue
		}
		_, inActive := doc.Views[activeViewID]
		claimed := activeViewID != "" && inActive && rules.MetInView(doc, activeViewID, bag)

		flagged := (doc.Required || doc.Provided) && !claimed
		unmetMember := activeViewID != "" && inActive && !rules.MetInView(doc, activeViewID, bag)
		if flagged || unmetMember {
			visible = append(visible, doc)
		}
	}
	f.sortForView(visible, f.overflowID)
	return visible
}

// Search narrows a visible set by a case-insensitive name substring. An
// empty result here is a distinct state from an empty view: the view had
// documents, the query filtered them all out.
func (f *Filter) Search(docs []*models.Document, query string) []*models.Document {
	query = strings.TrimSpace(query)
	if query == "" {
		return docs
	}
	needle := strings.ToLower(query)
	var matched []*models.Document
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Name), needle) {
			matched = append(matched, doc)
		}
	}
	return matched
}

// sortForView orders documents for display: required before non-required,
// then the view-specific order integer, then name ascending
// case-insensitively.
func (f *Filter) sortForView(docs []*models.Document, viewID string) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.Required != b.Required {
			return a.Required
		}
		if ao, bo := a.OrderIn(viewID), b.OrderIn(viewID); ao != bo {
			return ao < bo
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
