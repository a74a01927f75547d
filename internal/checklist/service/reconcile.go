package service

import (
	"context"
	"sort"

	"docket/internal/checklist/ports"
)

// SaveStatus classifies the outcome of a full save.
type SaveStatus string

const (
	// SaveComplete means every surviving field was written.
	SaveComplete SaveStatus = "complete"
	// SavePartial means the write landed but some fields could not be
	// written and were dropped from the batch.
	SavePartial SaveStatus = "partial_success"
	// SaveNoop means the record disappeared out of band; there was
	// nothing to save and nothing failed.
	SaveNoop SaveStatus = "record_missing"
)

// SaveResult reports what a full save wrote and what it had to give up.
type SaveResult struct {
	Status  SaveStatus
	Written []string
	Failed  []string
}

// EliminateFields returns pending minus the failed field names. Pure: the
// input map is never mutated, so a retry loop can fold over it safely.
func EliminateFields(pending map[string]any, failed []string) map[string]any {
	if len(failed) == 0 {
		return pending
	}
	drop := make(map[string]bool, len(failed))
	for _, name := range failed {
		drop[name] = true
	}
	next := make(map[string]any, len(pending))
	for name, value := range pending {
		if !drop[name] {
			next[name] = value
		}
	}
	return next
}

// writeBatch pushes a field batch through the elimination-and-retry loop:
// one initial attempt plus retryBudget retries, each retry shrinking the
// batch by the fields the store rejected as unknown. Schema drift never
// fails the save outright; the loop degrades to a partial result instead.
// Any non-schema error aborts and bubbles up untouched.
func (s *Service) writeBatch(ctx context.Context, recordID string, fields map[string]any) (SaveResult, error) {
	pending := fields
	var failed []string

	for attempt := 0; attempt <= s.retryBudget; attempt++ {
		if len(pending) == 0 {
			// Everything left was eliminated as unwritable; with no
			// legal writes remaining the save itself has succeeded.
			return SaveResult{Status: SaveComplete, Failed: sorted(failed)}, nil
		}

		err := s.store.Update(ctx, recordID, pending)
		if err == nil {
			status := SaveComplete
			if len(failed) > 0 {
				status = SavePartial
			}
			return SaveResult{Status: status, Written: keys(pending), Failed: sorted(failed)}, nil
		}

		if schemaErr, ok := ports.AsSchemaError(err); ok {
			if s.metrics != nil {
				s.metrics.AddFieldsEliminated(len(schemaErr.Missing))
			}
			s.logger.WarnContext(ctx, "eliminating drifted fields from save batch",
				"record_id", recordID,
				"fields", schemaErr.Missing,
				"attempt", attempt+1,
			)
			failed = append(failed, schemaErr.Missing...)
			pending = EliminateFields(pending, schemaErr.Missing)
			continue
		}
		return SaveResult{}, err
	}

	// Budget exhausted with fields still pending: everything unwritten
	// counts as failed, and the result degrades to partial rather than
	// error so confirmed writes from earlier attempts are not discarded.
	failed = append(failed, keys(pending)...)
	return SaveResult{Status: SavePartial, Failed: sorted(failed)}, nil
}

func keys(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sorted(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}
