// Package ports defines the interfaces the checklist service consumes.
// Interfaces live here when more than one implementation or consumer
// exists, mirroring the store/service split elsewhere in the codebase.
package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docket/internal/checklist/models"
	dErrors "docket/pkg/domain-errors"
	"docket/pkg/platform/audit"
)

// ErrNoCredentials signals that the record store has no access token
// configured. This is a first-class configuration condition: callers make
// it sticky and suppress further remote calls until a call succeeds.
var ErrNoCredentials = dErrors.New(dErrors.CodeUnauthorized, "record store credentials are not configured")

// SchemaError reports a write rejected because named fields do not exist
// in the external schema. Recovered locally by elimination and retry,
// never surfaced to end users.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema drift: missing fields %s", strings.Join(e.Missing, ", "))
}

// AsSchemaError extracts a SchemaError from anywhere in the chain.
func AsSchemaError(err error) (*SchemaError, bool) {
	var se *SchemaError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// RecordStore is the external record store at its boundary. Fetch returns
// a wholesale property-bag snapshot; Update writes a batch of fields.
// Updates against vanished records return CodeNotFound; writes against
// renamed or removed fields return *SchemaError with the offending names.
type RecordStore interface {
	// Fetch reads the named fields of one record. Implementations may
	// bound the number of fields per call; callers chunk against
	// FieldLimit.
	Fetch(ctx context.Context, recordID string, fields []string) (models.PropertyBag, error)

	// Update writes the given field values to one record as a single
	// batch.
	Update(ctx context.Context, recordID string, fields map[string]any) error

	// FieldLimit returns the maximum number of fields per call, or 0 for
	// unbounded.
	FieldLimit() int
}

// CredentialProvider supplies the record store access token. Absence is a
// detectable condition (ErrNoCredentials), not a generic failure.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// AuditPublisher emits audit events for checklist mutations and saves.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
