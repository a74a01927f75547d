// Package audit defines the audit event model emitted by domain logic.
// Events are transport-agnostic so stores and sinks can fan out.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose, which
// drives retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with record-keeping significance,
	// such as full saves that change what a dossier legally contains.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and
	// operational visibility; these can be sampled with short retention.
	CategoryOperations EventCategory = "operations"
)

// Event captures one checklist action against one record.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	RecordID   string
	Actor      string // authenticated caller, when known
	Action     string
	DocumentID string // set for per-document actions
	Field      string // "required" or "provided" for toggles
	Detail     string // free-form context, e.g. failed field names
	RequestID  string // correlation ID from HTTP request context
}

// Audit actions emitted by the checklist service.
const (
	EventDocumentToggled   = "document_toggled"
	EventToggleRejected    = "toggle_rejected"
	EventChecklistSaved    = "checklist_saved"
	EventChecklistPartial  = "checklist_saved_partial"
	EventChecklistReset    = "checklist_reset"
	EventSyncSuppressed    = "sync_suppressed"
	EventRecordDisappeared = "record_disappeared"
)

// Store persists audit events for later listing.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, recordID string) ([]Event, error)
}
