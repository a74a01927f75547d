package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docket/internal/checklist/models"
)

func conditionalDoc() *models.Document {
	return &models.Document{
		ID:            "payslip",
		Name:          "Payslip",
		RequiredField: "payslip_required",
		ProvidedField: "payslip_provided",
		Views: map[string]models.ViewPlacement{
			"purchase": {Order: 10, Conditions: []models.Condition{
				{Property: "employment_type", Operator: models.OpEquals, Value: "employed"},
			}},
		},
	}
}

func manualDoc() *models.Document {
	return &models.Document{
		ID:            "id_document",
		Name:          "Identity Document",
		RequiredField: "id_document_required",
		ProvidedField: "id_document_provided",
		Views: map[string]models.ViewPlacement{
			"purchase": {Order: 5},
		},
	}
}

// =====================================================================
// Required-status state machine
// =====================================================================

func TestResolve(t *testing.T) {
	t.Run("matching conditions force required", func(t *testing.T) {
		doc := conditionalDoc()
		doc.ManualRequired = false
		Resolve(doc, models.PropertyBag{"employment_type": "employed"})

		assert.True(t, doc.Required)
		assert.True(t, doc.ConditionRequired)
	})

	t.Run("unmatched conditions with provided keep manual flag", func(t *testing.T) {
		doc := conditionalDoc()
		doc.Provided = true
		doc.ManualRequired = true
		Resolve(doc, models.PropertyBag{"employment_type": "retired"})

		assert.True(t, doc.Required)
		assert.False(t, doc.ConditionRequired)

		doc.ManualRequired = false
		Resolve(doc, models.PropertyBag{"employment_type": "retired"})
		assert.False(t, doc.Required)
	})

	t.Run("unmatched conditions without provided drop required", func(t *testing.T) {
		doc := conditionalDoc()
		doc.ManualRequired = true
		Resolve(doc, models.PropertyBag{"employment_type": "retired"})

		assert.False(t, doc.Required, "manual flag is ignored while untracked")
		assert.False(t, doc.ConditionRequired)
	})

	t.Run("no conditions follow manual flag", func(t *testing.T) {
		doc := manualDoc()
		doc.ManualRequired = true
		Resolve(doc, models.PropertyBag{})

		assert.True(t, doc.Required)
		assert.False(t, doc.ConditionRequired)
	})

	t.Run("resolve is idempotent", func(t *testing.T) {
		doc := conditionalDoc()
		doc.Provided = true
		doc.ManualRequired = true
		bag := models.PropertyBag{"employment_type": "retired"}

		Resolve(doc, bag)
		first := *doc
		Resolve(doc, bag)
		assert.Equal(t, first.Required, doc.Required)
		assert.Equal(t, first.ConditionRequired, doc.ConditionRequired)
	})
}

// =====================================================================
// Toggle permissions
// =====================================================================

func TestCanToggleRequired(t *testing.T) {
	matched := models.PropertyBag{"employment_type": "employed"}
	unmatched := models.PropertyBag{"employment_type": "retired"}

	t.Run("overflow view always permits", func(t *testing.T) {
		doc := conditionalDoc()
		assert.True(t, CanToggleRequired(doc, matched, true, false))
		assert.True(t, CanToggleRequired(doc, unmatched, true, true))
	})

	t.Run("no conditions always permits", func(t *testing.T) {
		doc := manualDoc()
		assert.True(t, CanToggleRequired(doc, models.PropertyBag{}, false, true))
		assert.True(t, CanToggleRequired(doc, models.PropertyBag{}, false, false))
	})

	t.Run("matched conditions pin required to true", func(t *testing.T) {
		doc := conditionalDoc()
		assert.True(t, CanToggleRequired(doc, matched, false, true))
		assert.False(t, CanToggleRequired(doc, matched, false, false))
	})

	t.Run("unmatched and unprovided pin required to false", func(t *testing.T) {
		doc := conditionalDoc()
		assert.False(t, CanToggleRequired(doc, unmatched, false, true))
		assert.True(t, CanToggleRequired(doc, unmatched, false, false))
	})

	t.Run("unmatched but provided is manually manageable", func(t *testing.T) {
		doc := conditionalDoc()
		doc.Provided = true
		assert.True(t, CanToggleRequired(doc, unmatched, false, true))
		assert.True(t, CanToggleRequired(doc, unmatched, false, false))
	})
}

func TestApplyRequiredToggle(t *testing.T) {
	matched := models.PropertyBag{"employment_type": "employed"}

	t.Run("rejected toggle is a no-op", func(t *testing.T) {
		doc := conditionalDoc()
		Resolve(doc, matched)

		applied := ApplyRequiredToggle(doc, matched, false, false)
		assert.False(t, applied)
		assert.True(t, doc.Required, "state unchanged after rejection")
	})

	t.Run("overflow toggle overrides conditions", func(t *testing.T) {
		doc := conditionalDoc()
		Resolve(doc, matched)

		applied := ApplyRequiredToggle(doc, matched, true, false)
		assert.True(t, applied)
		assert.False(t, doc.Required)
		assert.False(t, doc.ConditionRequired)
		assert.False(t, doc.ManualRequired)
	})

	t.Run("manual document follows the toggle", func(t *testing.T) {
		doc := manualDoc()
		applied := ApplyRequiredToggle(doc, models.PropertyBag{}, false, true)
		assert.True(t, applied)
		assert.True(t, doc.Required)
	})
}

func TestApplyProvidedToggle(t *testing.T) {
	t.Run("provided feeds back into resolution", func(t *testing.T) {
		doc := conditionalDoc()
		doc.ManualRequired = true
		unmatched := models.PropertyBag{"employment_type": "retired"}
		Resolve(doc, unmatched)
		assert.False(t, doc.Required)

		// Marking provided moves the document into the manually managed
		// branch, so the stored manual flag resurfaces.
		ApplyProvidedToggle(doc, unmatched, true)
		assert.True(t, doc.Provided)
		assert.True(t, doc.Required)

		ApplyProvidedToggle(doc, unmatched, false)
		assert.False(t, doc.Provided)
		assert.False(t, doc.Required)
	})
}

func TestMetInView(t *testing.T) {
	doc := conditionalDoc()
	matched := models.PropertyBag{"employment_type": "employed"}

	assert.True(t, MetInView(doc, "purchase", matched))
	assert.False(t, MetInView(doc, "refinance", matched), "outside the view nothing is met")

	unconditional := manualDoc()
	assert.True(t, MetInView(unconditional, "purchase", models.PropertyBag{}),
		"membership without conditions is trivially met")
}
