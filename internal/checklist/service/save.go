package service

import (
	"context"
	"strings"

	"docket/internal/checklist/completion"
	"docket/internal/checklist/models"
	dErrors "docket/pkg/domain-errors"
	"docket/pkg/platform/audit"
)

// Save writes the full checklist state back to the record store: every
// document's flag pair plus the recomputed aggregates. At most one save
// per record may be in flight; a second call while one runs is rejected
// with a conflict. A vanished record is a benign no-op. After a
// successful (or partial) write the record is refetched so the store
// stays the source of truth.
func (s *Service) Save(ctx context.Context, recordID string) (SaveResult, error) {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return SaveResult{}, err
	}

	sess.mu.Lock()
	if sess.saving {
		sess.mu.Unlock()
		return SaveResult{}, dErrors.New(dErrors.CodeConflict, "a save is already in progress for this record")
	}
	sess.saving = true
	sess.stopDebounceLocked()
	batch := s.buildBatchLocked(sess)
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.saving = false
		sess.mu.Unlock()
	}()

	if s.metrics != nil {
		s.metrics.IncrementSaves()
	}

	if _, err := s.creds.Token(ctx); err != nil {
		s.markSuppressed(ctx, "save")
		return SaveResult{}, err
	}

	result, err := s.writeBatch(ctx, recordID, batch)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return s.recordDisappeared(ctx, recordID), nil
		}
		return SaveResult{}, err
	}
	s.clearSuppressed(ctx)

	if result.Status == SavePartial {
		if s.metrics != nil {
			s.metrics.IncrementPartialSaves()
		}
		s.emit(ctx, audit.Event{
			Category: audit.CategoryOperations,
			RecordID: recordID,
			Action:   audit.EventChecklistPartial,
			Detail:   strings.Join(result.Failed, ", "),
		})
	} else {
		s.emit(ctx, audit.Event{
			Category: audit.CategoryCompliance,
			RecordID: recordID,
			Action:   audit.EventChecklistSaved,
		})
	}

	// Refetch so local state reflects exactly what the store accepted. A
	// refetch failure does not undo the save; the session just stays on
	// its last known state until the next fetch.
	if bag, err := s.fetchBag(ctx, recordID); err != nil {
		s.logger.WarnContext(ctx, "post-save refetch failed", "record_id", recordID, "error", err)
	} else {
		if s.snapshots != nil {
			if err := s.snapshots.Set(ctx, recordID, bag); err != nil {
				s.logger.DebugContext(ctx, "snapshot cache write failed", "record_id", recordID, "error", err)
			}
		}
		sess.mu.Lock()
		s.rebuildLocked(ctx, sess, bag)
		sess.mu.Unlock()
	}

	return result, nil
}

// buildBatchLocked assembles the full-save field map: each document's
// flag pair plus the three aggregate fields recomputed from current
// state.
func (s *Service) buildBatchLocked(sess *session) map[string]any {
	batch := make(map[string]any, len(sess.docs)*2+3)
	for _, doc := range sess.docs {
		batch[doc.RequiredField] = doc.Required
		batch[doc.ProvidedField] = doc.Provided
	}

	state := completion.State(sess.docs)
	batch[s.catalog.Fields.DossierState] = string(state)
	batch[s.catalog.Fields.Complete] = state == models.StateComplete
	batch[s.catalog.Fields.MissingSummary] = strings.Join(completion.Missing(sess.docs), ", ")
	return batch
}

// recordDisappeared handles a save against a record deleted out of band:
// audited and counted, cached snapshot dropped, reported as a no-op
// success since there is nothing left to persist.
func (s *Service) recordDisappeared(ctx context.Context, recordID string) SaveResult {
	if s.metrics != nil {
		s.metrics.IncrementRecordsDisappeared()
	}
	s.emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		RecordID: recordID,
		Action:   audit.EventRecordDisappeared,
	})
	if s.snapshots != nil {
		if err := s.snapshots.Invalidate(ctx, recordID); err != nil {
			s.logger.DebugContext(ctx, "snapshot invalidation failed", "record_id", recordID, "error", err)
		}
	}
	return SaveResult{Status: SaveNoop}
}
