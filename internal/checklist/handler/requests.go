package handler

import (
	"fmt"

	"docket/internal/checklist/service"
)

// toggleRequest mutates one document flag from a given view context.
type toggleRequest struct {
	DocumentID string `json:"document_id"`
	Field      string `json:"field"`
	Value      bool   `json:"value"`
	ViewID     string `json:"view_id"`
}

func (r toggleRequest) Validate() error {
	if r.DocumentID == "" {
		return fmt.Errorf("document_id is required")
	}
	if r.Field != service.FieldRequired && r.Field != service.FieldProvided {
		return fmt.Errorf("field must be %q or %q", service.FieldRequired, service.FieldProvided)
	}
	return nil
}
