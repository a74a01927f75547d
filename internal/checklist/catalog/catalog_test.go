package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docket/pkg/domain-errors"
)

const validCatalog = `
category_field: case_category
views:
  - id: purchase
    title: Purchase
  - id: other
    title: Other Documents
overflow_view: other
properties:
  - employment_type
record_fields:
  missing_summary: docs_missing_summary
  complete: docs_complete
  dossier_state: dossier_state
documents:
  - id: payslip
    name: Payslip
    required_field: payslip_required
    provided_field: payslip_provided
    views:
      purchase:
        order: 10
        conditions:
          - property: employment_type
            operator: equals
            value: employed
  - id: id_document
    name: Identity Document
    required_field: id_document_required
    provided_field: id_document_provided
    views:
      other:
        order: 5
`

func TestParse_Valid(t *testing.T) {
	c, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	assert.Equal(t, "case_category", c.CategoryField)
	assert.Equal(t, "other", c.OverflowViewID)
	assert.Len(t, c.Documents, 2)
	assert.Equal(t, "dossier_state", c.Fields.DossierState)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing category field",
			yaml: `
views:
  - id: other
    title: Other
overflow_view: other
documents: []
`,
		},
		{
			name: "overflow view not declared",
			yaml: `
category_field: case_category
views:
  - id: purchase
    title: Purchase
overflow_view: other
documents: []
`,
		},
		{
			name: "overflow placement carries conditions",
			yaml: `
category_field: case_category
views:
  - id: other
    title: Other
overflow_view: other
documents:
  - id: doc
    name: Doc
    required_field: doc_required
    provided_field: doc_provided
    views:
      other:
        conditions:
          - property: employment_type
            operator: equals
            value: employed
`,
		},
		{
			name: "duplicate document id",
			yaml: `
category_field: case_category
views:
  - id: other
    title: Other
overflow_view: other
documents:
  - id: doc
    name: Doc
    required_field: a_required
    provided_field: a_provided
  - id: doc
    name: Doc Again
    required_field: b_required
    provided_field: b_provided
`,
		},
		{
			name: "missing flag fields",
			yaml: `
category_field: case_category
views:
  - id: other
    title: Other
overflow_view: other
documents:
  - id: doc
    name: Doc
    required_field: doc_required
`,
		},
		{
			name: "placement references unknown view",
			yaml: `
category_field: case_category
views:
  - id: other
    title: Other
overflow_view: other
documents:
  - id: doc
    name: Doc
    required_field: doc_required
    provided_field: doc_provided
    views:
      purchase:
        order: 1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestParse_UnknownOperator(t *testing.T) {
	raw := []byte(`
category_field: case_category
views:
  - id: purchase
    title: Purchase
  - id: other
    title: Other
overflow_view: other
documents:
  - id: doc
    name: Doc
    required_field: doc_required
    provided_field: doc_provided
    views:
      purchase:
        conditions:
          - property: employment_type
            operator: between
            value: a
`)

	t.Run("rejected by default", func(t *testing.T) {
		_, err := Parse(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "unknown operator")
	})

	t.Run("allowed with compatibility option", func(t *testing.T) {
		_, err := Parse(raw, WithAllowUnknownOperators(true))
		require.NoError(t, err)
	})
}

func TestFetchFields(t *testing.T) {
	c, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	fields := c.FetchFields()
	require.NotEmpty(t, fields)
	assert.Equal(t, "case_category", fields[0], "category field leads the list")

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		assert.False(t, seen[f], "field %q appears twice", f)
		seen[f] = true
	}
	for _, want := range []string{
		"employment_type",
		"payslip_required", "payslip_provided",
		"id_document_required", "id_document_provided",
		"docs_missing_summary", "docs_complete", "dossier_state",
	} {
		assert.True(t, seen[want], "missing field %q", want)
	}
}

func TestBuildDocuments_FreshCopies(t *testing.T) {
	c, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	first := c.BuildDocuments()
	first[0].Required = true
	first[0].Views["purchase"] = c.Documents[0].Views["purchase"]

	second := c.BuildDocuments()
	assert.False(t, second[0].Required, "mutating one build must not leak into the next")
}
