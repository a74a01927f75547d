// Package completion reduces a document set to the aggregate dossier
// state and a provided-over-required progress ratio.
package completion

import (
	"math"

	"docket/internal/checklist/models"
	pkgstrings "docket/pkg/platform/strings"
)

// State derives the three-valued dossier state. No required documents
// means there is nothing to build yet; required documents with at least
// one provided are complete only when every required one is provided;
// required documents with none provided are still to build.
func State(docs []*models.Document) models.DossierState {
	hasRequired := false
	anyProvided := false
	allRequiredProvided := true
	for _, doc := range docs {
		if doc.Required {
			hasRequired = true
			if !doc.Provided {
				allRequiredProvided = false
			}
		}
		if doc.Provided {
			anyProvided = true
		}
	}

	if !hasRequired {
		return models.StateToBuild
	}
	if !anyProvided {
		return models.StateToBuild
	}
	if allRequiredProvided {
		return models.StateComplete
	}
	return models.StateIncomplete
}

// Ratio computes the progress counts and percentage. With zero required
// documents the percentage is vacuously 100; callers should not render it
// in that case.
func Ratio(docs []*models.Document) models.Progress {
	required := 0
	provided := 0
	for _, doc := range docs {
		if !doc.Required {
			continue
		}
		required++
		if doc.Provided {
			provided++
		}
	}

	percent := 100
	if required > 0 {
		percent = int(math.Round(float64(provided) / float64(required) * 100))
	}
	return models.Progress{Required: required, Provided: provided, Percent: percent}
}

// Missing lists the display names of required-but-unprovided documents,
// skipping malformed entries without names. Deduplicated so two catalog
// entries sharing a display name read as one missing item in the summary
// pushed by the debounced partial sync.
func Missing(docs []*models.Document) []string {
	var names []string
	for _, doc := range docs {
		if doc.Required && !doc.Provided && doc.Name != "" {
			names = append(names, doc.Name)
		}
	}
	return pkgstrings.DedupeAndTrim(names)
}
