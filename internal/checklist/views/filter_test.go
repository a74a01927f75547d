package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docket/internal/checklist/models"
	"docket/internal/checklist/rules"
)

func doc(id, name string, views map[string]models.ViewPlacement) *models.Document {
	return &models.Document{
		ID:            id,
		Name:          name,
		RequiredField: id + "_required",
		ProvidedField: id + "_provided",
		Views:         views,
	}
}

func resolveAll(docs []*models.Document, bag models.PropertyBag) {
	for _, d := range docs {
		rules.Resolve(d, bag)
	}
}

func TestFilter_Active(t *testing.T) {
	filter := NewFilter("other")
	employedCond := []models.Condition{
		{Property: "employment_type", Operator: models.OpEquals, Value: "employed"},
	}

	t.Run("met conditions shown, unmet hidden", func(t *testing.T) {
		met := doc("payslip", "Payslip", map[string]models.ViewPlacement{
			"purchase": {Order: 10, Conditions: employedCond},
		})
		unmet := doc("tax_return", "Tax Return", map[string]models.ViewPlacement{
			"purchase": {Order: 20, Conditions: []models.Condition{
				{Property: "employment_type", Operator: models.OpEquals, Value: "self_employed"},
			}},
		})
		bag := models.PropertyBag{"employment_type": "employed"}
		docs := []*models.Document{met, unmet}
		resolveAll(docs, bag)

		visible := filter.Active(docs, "purchase", bag)
		assert.Len(t, visible, 1)
		assert.Equal(t, "payslip", visible[0].ID)
	})

	t.Run("completed document outlives its trigger", func(t *testing.T) {
		d := doc("payslip", "Payslip", map[string]models.ViewPlacement{
			"purchase": {Order: 10, Conditions: employedCond},
		})
		d.Provided = true
		d.ManualRequired = true
		bag := models.PropertyBag{"employment_type": "retired"}
		rules.Resolve(d, bag)

		visible := filter.Active([]*models.Document{d}, "purchase", bag)
		assert.Len(t, visible, 1, "required and provided keeps the document visible")
	})

	t.Run("non-member stays out even when satisfied", func(t *testing.T) {
		d := doc("permit", "Building Permit", map[string]models.ViewPlacement{
			"construction": {Order: 1},
		})
		visible := filter.Active([]*models.Document{d}, "purchase", models.PropertyBag{})
		assert.Empty(t, visible)
	})

	t.Run("no active view yields nothing", func(t *testing.T) {
		d := doc("payslip", "Payslip", map[string]models.ViewPlacement{
			"purchase": {Order: 10},
		})
		assert.Empty(t, filter.Active([]*models.Document{d}, "", models.PropertyBag{}))
	})

	t.Run("nameless documents are skipped", func(t *testing.T) {
		d := doc("ghost", "", map[string]models.ViewPlacement{
			"purchase": {Order: 1},
		})
		assert.Empty(t, filter.Active([]*models.Document{d}, "purchase", models.PropertyBag{}))
	})
}

func TestFilter_Overflow(t *testing.T) {
	filter := NewFilter("other")
	employedCond := []models.Condition{
		{Property: "employment_type", Operator: models.OpEquals, Value: "employed"},
	}

	t.Run("flagged but unclaimed appears", func(t *testing.T) {
		stray := doc("appraisal", "Appraisal", map[string]models.ViewPlacement{
			"other": {Order: 1},
		})
		stray.ManualRequired = true
		bag := models.PropertyBag{}
		resolveAll([]*models.Document{stray}, bag)

		visible := filter.Overflow([]*models.Document{stray}, "purchase", bag)
		assert.Len(t, visible, 1)
	})

	t.Run("claimed by active view stays out", func(t *testing.T) {
		claimed := doc("payslip", "Payslip", map[string]models.ViewPlacement{
			"purchase": {Order: 10, Conditions: employedCond},
		})
		bag := models.PropertyBag{"employment_type": "employed"}
		resolveAll([]*models.Document{claimed}, bag)

		visible := filter.Overflow([]*models.Document{claimed}, "purchase", bag)
		assert.Empty(t, visible)
	})

	t.Run("active member with unmet conditions appears", func(t *testing.T) {
		unmet := doc("payslip", "Payslip", map[string]models.ViewPlacement{
			"purchase": {Order: 10, Conditions: employedCond},
		})
		bag := models.PropertyBag{"employment_type": "retired"}
		resolveAll([]*models.Document{unmet}, bag)

		visible := filter.Overflow([]*models.Document{unmet}, "purchase", bag)
		assert.Len(t, visible, 1, "manageable exception surfaces in overflow")
	})

	t.Run("unflagged non-members stay out", func(t *testing.T) {
		idle := doc("permit", "Building Permit", map[string]models.ViewPlacement{
			"construction": {Order: 1},
		})
		visible := filter.Overflow([]*models.Document{idle}, "purchase", models.PropertyBag{})
		assert.Empty(t, visible)
	})
}

func TestFilter_Ordering(t *testing.T) {
	filter := NewFilter("other")

	a := doc("a", "Zeta Form", map[string]models.ViewPlacement{"purchase": {Order: 10}})
	b := doc("b", "alpha form", map[string]models.ViewPlacement{"purchase": {Order: 10}})
	c := doc("c", "Beta Form", map[string]models.ViewPlacement{"purchase": {Order: 5}})
	d := doc("d", "Delta Form", map[string]models.ViewPlacement{"purchase": {Order: 99}})
	d.ManualRequired = true

	bag := models.PropertyBag{}
	docs := []*models.Document{a, b, c, d}
	resolveAll(docs, bag)

	visible := filter.Active(docs, "purchase", bag)
	ids := make([]string, len(visible))
	for i, v := range visible {
		ids[i] = v.ID
	}
	// Required first, then order, then case-insensitive name.
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids)
}

func TestFilter_Search(t *testing.T) {
	filter := NewFilter("other")
	docs := []*models.Document{
		doc("a", "Payslip (last 3 months)", nil),
		doc("b", "Tax Return", nil),
	}

	assert.Len(t, filter.Search(docs, "payslip"), 1)
	assert.Len(t, filter.Search(docs, "RETURN"), 1)
	assert.Len(t, filter.Search(docs, ""), 2, "empty query passes everything through")
	assert.Empty(t, filter.Search(docs, "bank"), "filtered-to-empty is a real outcome")
}
