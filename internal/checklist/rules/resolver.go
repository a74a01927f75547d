package rules

import "docket/internal/checklist/models"

// MetInView reports whether the document's conditions for one view are
// satisfied. A document with zero conditions for a view it participates in
// is trivially satisfied there; a document outside the view is not.
func MetInView(doc *models.Document, viewID string, bag models.PropertyBag) bool {
	if _, ok := doc.Views[viewID]; !ok {
		return false
	}
	return GroupsSatisfied(doc.ConditionsIn(viewID), bag)
}

// MetGlobal evaluates the document's conditions pooled across every view
// it participates in. Used when required status is not pinned to one view.
func MetGlobal(doc *models.Document, bag models.PropertyBag) bool {
	return GroupsSatisfied(doc.AllConditions(), bag)
}

// Resolve runs the required-status state machine for one document and
// writes the effective Required / ConditionRequired values.
//
// With matching conditions the requirement is condition-derived and
// overrides the manual flag. When conditions stop matching, a provided
// document keeps its manual flag (the user manages an already-satisfied
// exception), while an unprovided one stops being tracked. Documents
// without conditions follow the manual flag exactly.
func Resolve(doc *models.Document, bag models.PropertyBag) {
	if !doc.HasConditions() {
		doc.Required = doc.ManualRequired
		doc.ConditionRequired = false
		return
	}

	if MetGlobal(doc, bag) {
		doc.Required = true
		doc.ConditionRequired = true
		return
	}

	doc.ConditionRequired = false
	if doc.Provided {
		doc.Required = doc.ManualRequired
		return
	}
	doc.Required = false
}

// CanToggleRequired reports whether a manual required toggle to target is
// permitted. Inside the overflow view manual control always wins. In any
// other view the toggle is rejected when it contradicts the
// condition-derived value: matched conditions pin required to true, and
// unmatched conditions on an unprovided document pin it to false. The only
// condition-bearing case left to the user outside overflow is a provided
// document whose trigger no longer matches.
func CanToggleRequired(doc *models.Document, bag models.PropertyBag, inOverflow bool, target bool) bool {
	if inOverflow || !doc.HasConditions() {
		return true
	}
	if MetGlobal(doc, bag) {
		return target
	}
	if !doc.Provided {
		return !target
	}
	return true
}

// ApplyRequiredToggle mutates the manual required flag and re-resolves the
// document. Returns false (no-op) when the toggle is rejected.
func ApplyRequiredToggle(doc *models.Document, bag models.PropertyBag, inOverflow bool, target bool) bool {
	if !CanToggleRequired(doc, bag, inOverflow, target) {
		return false
	}
	doc.ManualRequired = target
	Resolve(doc, bag)
	// Inside overflow the manual value is authoritative even against
	// conditions, so reflect it directly.
	if inOverflow {
		doc.Required = target
		doc.ConditionRequired = false
	}
	return true
}

// ApplyProvidedToggle mutates the provided flag, which is always
// permitted, and re-resolves since provided feeds the state machine.
func ApplyProvidedToggle(doc *models.Document, bag models.PropertyBag, target bool) {
	doc.Provided = target
	Resolve(doc, bag)
}
