package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/checklist/catalog"
)

func routingCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(`
category_field: case_category
views:
  - id: purchase
    title: Purchase
  - id: refinance
    title: Refinance
  - id: other
    title: Other
overflow_view: other
documents:
  - id: purchase_contract
    name: Purchase Contract
    required_field: pc_required
    provided_field: pc_provided
    views:
      purchase:
        order: 1
        conditions:
          - property: case_category
            operator: equals
            value: Purchase
  - id: payoff_statement
    name: Payoff Statement
    required_field: ps_required
    provided_field: ps_provided
    views:
      refinance:
        order: 1
        conditions:
          - property: case_category
            operator: equals
            value: Refinance
  - id: payslip
    name: Payslip
    required_field: payslip_required
    provided_field: payslip_provided
    views:
      purchase:
        order: 10
        conditions:
          - property: case_category
            operator: equals
            value: Purchase Plus
          - property: employment_type
            operator: equals
            value: employed
`))
	require.NoError(t, err)
	return c
}

func TestRouter_Resolve(t *testing.T) {
	router := NewRouter(routingCatalog(t))

	t.Run("exclusive exact match", func(t *testing.T) {
		route := router.Resolve("Purchase")
		assert.True(t, route.Ok)
		assert.Equal(t, "purchase", route.ViewID)
		assert.False(t, route.Heuristic)
		assert.Empty(t, route.Ambiguous)
	})

	t.Run("surrounding whitespace ignored", func(t *testing.T) {
		route := router.Resolve("  Refinance  ")
		assert.True(t, route.Ok)
		assert.Equal(t, "refinance", route.ViewID)
	})

	t.Run("non-exclusive exact match after exclusive misses", func(t *testing.T) {
		// "Purchase Plus" appears only in a multi-condition placement, so
		// the binding is non-exclusive but still an exact value.
		route := router.Resolve("Purchase Plus")
		assert.True(t, route.Ok)
		assert.Equal(t, "purchase", route.ViewID)
		assert.False(t, route.Heuristic)
	})

	t.Run("heuristic substring fallback", func(t *testing.T) {
		route := router.Resolve("purchase (legacy)")
		assert.True(t, route.Ok)
		assert.Equal(t, "purchase", route.ViewID)
		assert.True(t, route.Heuristic)
	})

	t.Run("no match leaves active view undefined", func(t *testing.T) {
		route := router.Resolve("Inheritance")
		assert.False(t, route.Ok)
		assert.Empty(t, route.ViewID)
	})

	t.Run("empty category never routes", func(t *testing.T) {
		route := router.Resolve("   ")
		assert.False(t, route.Ok)
	})
}

func TestRouter_Ambiguity(t *testing.T) {
	c, err := catalog.Parse([]byte(`
category_field: case_category
views:
  - id: purchase
    title: Purchase
  - id: refinance
    title: Refinance
  - id: other
    title: Other
overflow_view: other
documents:
  - id: a
    name: Doc A
    required_field: a_required
    provided_field: a_provided
    views:
      purchase:
        conditions:
          - property: case_category
            operator: equals
            value: Mixed
  - id: b
    name: Doc B
    required_field: b_required
    provided_field: b_provided
    views:
      refinance:
        conditions:
          - property: case_category
            operator: equals
            value: Mixed
`))
	require.NoError(t, err)

	route := NewRouter(c).Resolve("Mixed")
	assert.True(t, route.Ok)
	assert.Equal(t, "purchase", route.ViewID, "first claim in catalog order wins")
	assert.ElementsMatch(t, []string{"purchase", "refinance"}, route.Ambiguous)
}
