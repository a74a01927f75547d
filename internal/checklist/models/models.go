// Package models defines the checklist domain entities: documents, their
// placement conditions, views, and the aggregate dossier state.
package models

// Operator names the comparison applied by a condition.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpIn          Operator = "in"
)

// validOperators is the set of recognized condition operators.
var validOperators = map[Operator]bool{
	OpEquals:      true,
	OpNotEquals:   true,
	OpContains:    true,
	OpNotContains: true,
	OpIn:          true,
}

// IsValidOperator reports whether op is a recognized condition operator.
func IsValidOperator(op Operator) bool {
	return validOperators[op]
}

// Condition is a single predicate over one record field.
type Condition struct {
	Property string   `yaml:"property" json:"property"`
	Operator Operator `yaml:"operator" json:"operator"`
	Value    string   `yaml:"value" json:"value"`
}

// ViewPlacement describes how a document participates in one view:
// its display order and the conditions under which it applies there.
type ViewPlacement struct {
	Order      int         `yaml:"order" json:"order"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// View is a category-driven grouping of documents. Exactly one view in a
// catalog is the overflow view, which exists for every record and carries
// no conditions of its own.
type View struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Document is one trackable artifact on a record's checklist. The flag pair
// is persisted externally; Required here is the effective value after the
// resolver has combined conditions with the persisted manual flag.
type Document struct {
	ID            string
	Name          string
	RequiredField string // external field holding the required flag
	ProvidedField string // external field holding the provided flag

	Required bool
	Provided bool
	// ManualRequired is the required flag as last read from the store,
	// before condition overrides. The resolver's state machine needs it
	// when conditions stop matching.
	ManualRequired bool
	// ConditionRequired is true when the current required value is derived
	// from matching conditions rather than the manual flag.
	ConditionRequired bool

	Views map[string]ViewPlacement
}

// HasConditions reports whether the document carries any condition in any
// of its view placements.
func (d *Document) HasConditions() bool {
	for _, placement := range d.Views {
		if len(placement.Conditions) > 0 {
			return true
		}
	}
	return false
}

// ConditionsIn returns the document's conditions for one view, or nil when
// the document does not participate in that view.
func (d *Document) ConditionsIn(viewID string) []Condition {
	placement, ok := d.Views[viewID]
	if !ok {
		return nil
	}
	return placement.Conditions
}

// AllConditions pools the conditions from every view the document
// participates in. Used for global (non-view-pinned) evaluation.
func (d *Document) AllConditions() []Condition {
	var all []Condition
	for _, placement := range d.Views {
		all = append(all, placement.Conditions...)
	}
	return all
}

// OrderIn returns the document's display order for a view. Documents
// outside the view sort last.
func (d *Document) OrderIn(viewID string) int {
	if placement, ok := d.Views[viewID]; ok {
		return placement.Order
	}
	return int(^uint(0) >> 1)
}

// Clone returns a deep copy so sessions can keep a pristine baseline for
// unsaved-change detection.
func (d *Document) Clone() *Document {
	copied := *d
	copied.Views = make(map[string]ViewPlacement, len(d.Views))
	for id, placement := range d.Views {
		conds := make([]Condition, len(placement.Conditions))
		copy(conds, placement.Conditions)
		copied.Views[id] = ViewPlacement{Order: placement.Order, Conditions: conds}
	}
	return &copied
}

// DossierState is the three-valued aggregate completion status of a
// record's document set. It is recomputed, never stored independently.
type DossierState string

const (
	StateToBuild    DossierState = "TO_BUILD"
	StateIncomplete DossierState = "INCOMPLETE"
	StateComplete   DossierState = "COMPLETE"
)

// Progress is the provided-over-required completion ratio.
type Progress struct {
	Required int `json:"required"`
	Provided int `json:"provided"`
	// Percent is rounded to the nearest integer. Defined as 100 when no
	// document is required (vacuously complete); callers should not render
	// it in that case.
	Percent int `json:"percent"`
}
