package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"docket/internal/checklist/completion"
	"docket/internal/checklist/ports"
	"docket/pkg/platform/audit"
)

// scheduleSyncLocked arms (or re-arms) the per-record debounce timer.
// Rapid toggles coalesce into a single partial sync after the quiet
// period; a full save cancels any pending timer since it supersedes the
// partial write.
func (s *Service) scheduleSyncLocked(sess *session) {
	if s.debounce <= 0 {
		return
	}
	if sess.debounceTimer != nil {
		sess.debounceTimer.Stop()
	}
	recordID := sess.recordID
	sess.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.partialSync(recordID)
	})
}

// partialSync pushes only the missing-document summary field, computed
// from session state at fire time so the coalesced value is current.
// Best effort: transient failures are logged and dropped, the next
// toggle or save will carry fresher state anyway. Missing credentials
// are different; they set the sticky suppression flag and every
// subsequent sync is skipped until some remote call succeeds.
func (s *Service) partialSync(recordID string) {
	ctx := context.Background()

	if s.isSuppressed() {
		s.skipSuppressed(ctx, recordID)
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[recordID]
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	if sess.docs == nil || sess.saving {
		sess.mu.Unlock()
		return
	}
	summary := strings.Join(completion.Missing(sess.docs), ", ")
	sess.mu.Unlock()

	if _, err := s.creds.Token(ctx); err != nil {
		if errors.Is(err, ports.ErrNoCredentials) {
			s.markSuppressed(ctx, "partial_sync")
			s.skipSuppressed(ctx, recordID)
			return
		}
		s.logger.DebugContext(ctx, "partial sync skipped", "record_id", recordID, "error", err)
		return
	}

	fields := map[string]any{s.catalog.Fields.MissingSummary: summary}
	if err := s.store.Update(ctx, recordID, fields); err != nil {
		s.logger.DebugContext(ctx, "partial sync failed", "record_id", recordID, "error", err)
		return
	}
	s.clearSuppressed(ctx)
}

func (s *Service) skipSuppressed(ctx context.Context, recordID string) {
	if s.metrics != nil {
		s.metrics.IncrementSyncsSuppressed()
	}
	s.emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		RecordID: recordID,
		Action:   audit.EventSyncSuppressed,
	})
}
