// Package catalog loads and validates the static document/view catalog.
// The catalog is read once at startup and treated as immutable afterwards;
// nothing in the engine ever creates or deletes catalog entries at runtime.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"docket/internal/checklist/models"
	dErrors "docket/pkg/domain-errors"
)

// RecordFields names the aggregate fields the engine writes back to the
// record store, beyond the per-document flag pairs.
type RecordFields struct {
	MissingSummary string `yaml:"missing_summary"`
	Complete       string `yaml:"complete"`
	DossierState   string `yaml:"dossier_state"`
}

// DocumentSpec is the catalog entry for one trackable document.
type DocumentSpec struct {
	ID            string                          `yaml:"id"`
	Name          string                          `yaml:"name"`
	RequiredField string                          `yaml:"required_field"`
	ProvidedField string                          `yaml:"provided_field"`
	Views         map[string]models.ViewPlacement `yaml:"views"`
}

// Catalog is the immutable description of every trackable document, the
// views they can appear in, and the record fields the engine reads and
// writes.
type Catalog struct {
	CategoryField  string         `yaml:"category_field"`
	Views          []models.View  `yaml:"views"`
	OverflowViewID string         `yaml:"overflow_view"`
	Properties     []string       `yaml:"properties"`
	Fields         RecordFields   `yaml:"record_fields"`
	Documents      []DocumentSpec `yaml:"documents"`
}

// Option configures catalog loading.
type Option func(*loadOptions)

type loadOptions struct {
	allowUnknownOperators bool
}

// WithAllowUnknownOperators keeps catalogs with unrecognized condition
// operators loadable for backward compatibility. The evaluator treats such
// conditions as satisfied, which is almost never what a catalog author
// wants, so this is off by default and unknown operators fail the load.
func WithAllowUnknownOperators(allow bool) Option {
	return func(o *loadOptions) {
		o.allowUnknownOperators = allow
	}
}

// Load reads and validates a catalog file.
func Load(path string, opts ...Option) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "read catalog file")
	}
	return Parse(raw, opts...)
}

// Parse validates a catalog from raw YAML.
func Parse(raw []byte, opts ...Option) (*Catalog, error) {
	var options loadOptions
	for _, opt := range opts {
		opt(&options)
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "parse catalog yaml")
	}
	if err := c.validate(options); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate(options loadOptions) error {
	if c.CategoryField == "" {
		return dErrors.New(dErrors.CodeValidation, "catalog: category_field is required")
	}
	if len(c.Views) == 0 {
		return dErrors.New(dErrors.CodeValidation, "catalog: at least one view is required")
	}

	viewIDs := make(map[string]bool, len(c.Views))
	for _, view := range c.Views {
		if view.ID == "" {
			return dErrors.New(dErrors.CodeValidation, "catalog: view with empty id")
		}
		if viewIDs[view.ID] {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("catalog: duplicate view id %q", view.ID))
		}
		viewIDs[view.ID] = true
	}
	if c.OverflowViewID == "" || !viewIDs[c.OverflowViewID] {
		return dErrors.New(dErrors.CodeValidation, "catalog: overflow_view must name a declared view")
	}
	for _, placement := range c.documentPlacements(c.OverflowViewID) {
		if len(placement.Conditions) > 0 {
			return dErrors.New(dErrors.CodeValidation, "catalog: overflow view must not carry conditions")
		}
	}

	docIDs := make(map[string]bool, len(c.Documents))
	for _, doc := range c.Documents {
		if doc.ID == "" {
			return dErrors.New(dErrors.CodeValidation, "catalog: document with empty id")
		}
		if docIDs[doc.ID] {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("catalog: duplicate document id %q", doc.ID))
		}
		docIDs[doc.ID] = true
		if doc.RequiredField == "" || doc.ProvidedField == "" {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("catalog: document %q needs required_field and provided_field", doc.ID))
		}
		for viewID, placement := range doc.Views {
			if !viewIDs[viewID] {
				return dErrors.New(dErrors.CodeValidation,
					fmt.Sprintf("catalog: document %q references unknown view %q", doc.ID, viewID))
			}
			for _, cond := range placement.Conditions {
				if cond.Property == "" {
					return dErrors.New(dErrors.CodeValidation,
						fmt.Sprintf("catalog: document %q has a condition with empty property", doc.ID))
				}
				if !models.IsValidOperator(cond.Operator) && !options.allowUnknownOperators {
					return dErrors.New(dErrors.CodeValidation,
						fmt.Sprintf("catalog: document %q uses unknown operator %q", doc.ID, cond.Operator))
				}
			}
		}
	}
	return nil
}

// documentPlacements collects every document placement for one view.
func (c *Catalog) documentPlacements(viewID string) []models.ViewPlacement {
	var placements []models.ViewPlacement
	for _, doc := range c.Documents {
		if placement, ok := doc.Views[viewID]; ok {
			placements = append(placements, placement)
		}
	}
	return placements
}

// BuildDocuments materializes a fresh, mutable document set from the
// catalog. Called once per fetch cycle; flag values are merged in by the
// caller from the fetched bag.
func (c *Catalog) BuildDocuments() []*models.Document {
	docs := make([]*models.Document, 0, len(c.Documents))
	for _, spec := range c.Documents {
		views := make(map[string]models.ViewPlacement, len(spec.Views))
		for viewID, placement := range spec.Views {
			conds := make([]models.Condition, len(placement.Conditions))
			copy(conds, placement.Conditions)
			views[viewID] = models.ViewPlacement{Order: placement.Order, Conditions: conds}
		}
		docs = append(docs, &models.Document{
			ID:            spec.ID,
			Name:          spec.Name,
			RequiredField: spec.RequiredField,
			ProvidedField: spec.ProvidedField,
			Views:         views,
		})
	}
	return docs
}

// FetchFields returns every record field the engine must request: the
// category field first (fetch chunking keeps the first chunk authoritative
// for routing), then the configured property list, condition properties,
// and each document's flag pair. The list is deduplicated and, beyond the
// category field, sorted for deterministic batching.
func (c *Catalog) FetchFields() []string {
	seen := map[string]bool{c.CategoryField: true}
	var rest []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		rest = append(rest, name)
	}

	for _, p := range c.Properties {
		add(p)
	}
	// The aggregate fields are read back too; dossier_state in particular
	// feeds external-drift detection.
	add(c.Fields.MissingSummary)
	add(c.Fields.Complete)
	add(c.Fields.DossierState)
	for _, doc := range c.Documents {
		for _, placement := range doc.Views {
			for _, cond := range placement.Conditions {
				add(cond.Property)
			}
		}
		add(doc.RequiredField)
		add(doc.ProvidedField)
	}
	sort.Strings(rest)
	return append([]string{c.CategoryField}, rest...)
}

// ViewByID returns the declared view, with ok=false for unknown ids.
func (c *Catalog) ViewByID(id string) (models.View, bool) {
	for _, view := range c.Views {
		if view.ID == id {
			return view, true
		}
	}
	return models.View{}, false
}

// ViewTitles returns a stable id -> title mapping for presentation.
func (c *Catalog) ViewTitles() map[string]string {
	titles := make(map[string]string, len(c.Views))
	for _, view := range c.Views {
		titles[view.ID] = view.Title
	}
	return titles
}

// NormalizedCategory folds a category value for heuristic comparison.
func NormalizedCategory(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
