package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docket/internal/checklist/models"
)

func doc(name string, required, provided bool) *models.Document {
	return &models.Document{ID: name, Name: name, Required: required, Provided: provided}
}

func TestState(t *testing.T) {
	tests := []struct {
		name string
		docs []*models.Document
		want models.DossierState
	}{
		{
			name: "no required documents",
			docs: []*models.Document{doc("a", false, false)},
			want: models.StateToBuild,
		},
		{
			name: "required but nothing provided",
			docs: []*models.Document{doc("a", true, false), doc("b", true, false)},
			want: models.StateToBuild,
		},
		{
			name: "some required provided",
			docs: []*models.Document{doc("a", true, true), doc("b", true, false)},
			want: models.StateIncomplete,
		},
		{
			name: "all required provided",
			docs: []*models.Document{doc("a", true, true), doc("b", true, true)},
			want: models.StateComplete,
		},
		{
			name: "unrequired provided document satisfies the provided gate",
			docs: []*models.Document{doc("a", true, true), doc("b", false, true)},
			want: models.StateComplete,
		},
		{
			name: "empty set",
			docs: nil,
			want: models.StateToBuild,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, State(tt.docs))
		})
	}
}

func TestRatio(t *testing.T) {
	t.Run("counts only required documents", func(t *testing.T) {
		p := Ratio([]*models.Document{
			doc("a", true, true),
			doc("b", true, false),
			doc("c", false, true),
		})
		assert.Equal(t, 2, p.Required)
		assert.Equal(t, 1, p.Provided)
		assert.Equal(t, 50, p.Percent)
	})

	t.Run("percent rounds to nearest", func(t *testing.T) {
		p := Ratio([]*models.Document{
			doc("a", true, true),
			doc("b", true, false),
			doc("c", true, false),
		})
		assert.Equal(t, 33, p.Percent)

		p = Ratio([]*models.Document{
			doc("a", true, true),
			doc("b", true, true),
			doc("c", true, false),
		})
		assert.Equal(t, 67, p.Percent)
	})

	t.Run("zero required is vacuously complete", func(t *testing.T) {
		p := Ratio(nil)
		assert.Equal(t, 0, p.Required)
		assert.Equal(t, 100, p.Percent)
	})
}

func TestMissing(t *testing.T) {
	names := Missing([]*models.Document{
		doc("Payslip", true, false),
		doc("Tax Return", true, true),
		doc("Appraisal", true, false),
		{ID: "ghost", Required: true},
	})
	assert.Equal(t, []string{"Payslip", "Appraisal"}, names)
}
