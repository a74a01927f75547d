package handler

import (
	"docket/internal/checklist/models"
	"docket/internal/checklist/service"
)

// documentResponse is the wire shape of one checklist document.
type documentResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Required          bool   `json:"required"`
	Provided          bool   `json:"provided"`
	ConditionRequired bool   `json:"condition_required"`
	// RequiredLocked mirrors whether the required toggle would be
	// rejected in this view, so clients can render the control read-only.
	RequiredLocked bool `json:"required_locked"`
}

type progressResponse struct {
	Required int `json:"required"`
	Provided int `json:"provided"`
	Percent  int `json:"percent"`
}

// checklistResponse is the full snapshot returned by GET and reset.
type checklistResponse struct {
	RecordID          string                        `json:"record_id"`
	Views             map[string]string             `json:"views"`
	ActiveViewID      string                        `json:"active_view_id,omitempty"`
	OverflowViewID    string                        `json:"overflow_view_id"`
	Documents         map[string][]documentResponse `json:"documents"`
	Progress          progressResponse              `json:"progress"`
	DossierState      models.DossierState           `json:"dossier_state"`
	StateDrift        bool                          `json:"state_drift"`
	HasUnsavedChanges bool                          `json:"has_unsaved_changes"`
}

// toggleResponse reports a toggle outcome plus the recomputed summary.
type toggleResponse struct {
	Applied           bool                `json:"applied"`
	Progress          progressResponse    `json:"progress"`
	DossierState      models.DossierState `json:"dossier_state"`
	HasUnsavedChanges bool                `json:"has_unsaved_changes"`
}

// saveResponse reports what a save wrote and what it had to give up.
type saveResponse struct {
	Status       service.SaveStatus  `json:"status"`
	Written      []string            `json:"written,omitempty"`
	Failed       []string            `json:"failed,omitempty"`
	Progress     progressResponse    `json:"progress"`
	DossierState models.DossierState `json:"dossier_state"`
}

func toProgressResponse(p models.Progress) progressResponse {
	return progressResponse{Required: p.Required, Provided: p.Provided, Percent: p.Percent}
}
