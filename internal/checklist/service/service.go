// Package service implements the checklist engine: it merges the static
// catalog with fetched record state, resolves requirements, routes views,
// and reconciles local mutations back to the external record store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"docket/internal/checklist/catalog"
	"docket/internal/checklist/completion"
	"docket/internal/checklist/metrics"
	"docket/internal/checklist/models"
	"docket/internal/checklist/ports"
	"docket/internal/checklist/rules"
	"docket/internal/checklist/store/cache"
	"docket/internal/checklist/views"
	dErrors "docket/pkg/domain-errors"
	"docket/pkg/platform/audit"
	"docket/pkg/requestcontext"
)

// Toggleable fields.
const (
	FieldRequired = "required"
	FieldProvided = "provided"
)

// Service owns one session per record and the process-scoped sync
// suppression flag. All mutation on a session happens under its lock; the
// engine has no other internal concurrency.
type Service struct {
	catalog *catalog.Catalog
	store   ports.RecordStore
	creds   ports.CredentialProvider
	router  *views.Router
	filter  *views.Filter

	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher ports.AuditPublisher
	snapshots *cache.SnapshotCache

	debounce    time.Duration
	retryBudget int

	mu       sync.Mutex
	sessions map[string]*session

	// suppressed is the sticky configuration-error flag: set when the
	// credential provider reports no token, cleared exactly on the next
	// successful remote call. While set, debounced syncs are skipped so a
	// missing secret does not turn into a retry storm.
	suppressMu sync.Mutex
	suppressed bool
}

// session is the per-record working state. It is rebuilt wholesale from
// every successful fetch and mutated in memory between fetches.
type session struct {
	mu sync.Mutex

	recordID string
	bag      models.PropertyBag
	docs     []*models.Document
	route    views.Route

	// baseline captures effective flags right after the last fetch, the
	// reference point for unsaved-change detection and Reset.
	baseline map[string]flagPair

	// lastReadState is the dossier state as last read from the store,
	// compared against the recomputed value to detect external drift.
	lastReadState models.DossierState

	saving        bool
	debounceTimer *time.Timer
}

type flagPair struct {
	required       bool
	provided       bool
	manualRequired bool
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithSnapshotCache(snapshots *cache.SnapshotCache) Option {
	return func(s *Service) { s.snapshots = snapshots }
}

// WithDebounce sets the quiet period before a partial sync fires.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.debounce = d }
}

// WithRetryBudget sets how many extra attempts a full save may spend
// eliminating drifted fields.
func WithRetryBudget(n int) Option {
	return func(s *Service) { s.retryBudget = n }
}

// New constructs the checklist service.
func New(cat *catalog.Catalog, store ports.RecordStore, creds ports.CredentialProvider, opts ...Option) (*Service, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential provider is required")
	}

	s := &Service{
		catalog:     cat,
		store:       store,
		creds:       creds,
		router:      views.NewRouter(cat),
		filter:      views.NewFilter(cat.OverflowViewID),
		debounce:    2 * time.Second,
		retryBudget: 2,
		sessions:    make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

func (s *Service) getSession(recordID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[recordID]
	if !ok {
		sess = &session{recordID: recordID}
		s.sessions[recordID] = sess
	}
	return sess
}

// FetchAll refreshes the record's property bag wholesale and rebuilds the
// document set: catalog entries merged with fetched flag values, freshly
// resolved requirements, and a rerouted active view. Any prior in-memory
// mutations are discarded; the fetch result is the new baseline.
func (s *Service) FetchAll(ctx context.Context, recordID string) error {
	if recordID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "record id is required")
	}

	if _, err := s.creds.Token(ctx); err != nil {
		s.markSuppressed(ctx, "fetch")
		return err
	}

	bag, err := s.fetchBag(ctx, recordID)
	if err != nil {
		return err
	}
	s.clearSuppressed(ctx)

	if s.snapshots != nil {
		if err := s.snapshots.Set(ctx, recordID, bag); err != nil {
			s.logger.DebugContext(ctx, "snapshot cache write failed", "record_id", recordID, "error", err)
		}
	}

	sess := s.getSession(recordID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.rebuildLocked(ctx, sess, bag)
	return nil
}

// fetchBag reads every catalog field, chunked against the store's
// per-call bound. Any chunk failure fails the fetch wholesale so the bag
// stays a consistent snapshot.
func (s *Service) fetchBag(ctx context.Context, recordID string) (models.PropertyBag, error) {
	fields := s.catalog.FetchFields()
	limit := s.store.FieldLimit()

	bag := make(models.PropertyBag, len(fields))
	for start := 0; start < len(fields); {
		end := len(fields)
		if limit > 0 && start+limit < end {
			end = start + limit
		}
		chunk, err := s.store.Fetch(ctx, recordID, fields[start:end])
		if err != nil {
			return nil, err
		}
		for k, v := range chunk {
			bag[k] = v
		}
		start = end
	}
	return bag, nil
}

// rebuildLocked replaces the session's working state from a fresh bag.
func (s *Service) rebuildLocked(ctx context.Context, sess *session, bag models.PropertyBag) {
	docs := s.catalog.BuildDocuments()
	for _, doc := range docs {
		doc.ManualRequired = bag.Bool(doc.RequiredField)
		doc.Provided = bag.Bool(doc.ProvidedField)
		rules.Resolve(doc, bag)
	}

	route := s.router.Resolve(bag.String(s.catalog.CategoryField))
	if len(route.Ambiguous) > 0 {
		if s.metrics != nil {
			s.metrics.IncrementRoutingAmbiguities()
		}
		s.logger.WarnContext(ctx, "category value matches more than one view",
			"record_id", sess.recordID,
			"category", bag.String(s.catalog.CategoryField),
			"views", strings.Join(route.Ambiguous, ","),
		)
	}

	baseline := make(map[string]flagPair, len(docs))
	for _, doc := range docs {
		baseline[doc.ID] = flagPair{
			required:       doc.Required,
			provided:       doc.Provided,
			manualRequired: doc.ManualRequired,
		}
	}

	sess.bag = bag
	sess.docs = docs
	sess.route = route
	sess.baseline = baseline
	sess.lastReadState = models.DossierState(bag.String(s.catalog.Fields.DossierState))
}

// ToggleRequest is one user mutation of a document flag.
type ToggleRequest struct {
	DocumentID string
	Field      string // FieldRequired or FieldProvided
	Value      bool
	// ViewID is the view the user acted in; the overflow view carries
	// wider manual-control rights.
	ViewID string
}

// Toggle applies a flag mutation under the resolver's permission rules.
// A rejected required toggle is a no-op, reported via applied=false
// rather than an error: the control is read-only, not broken.
func (s *Service) Toggle(ctx context.Context, recordID string, req ToggleRequest) (applied bool, err error) {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	doc := findDocument(sess.docs, req.DocumentID)
	if doc == nil {
		return false, dErrors.New(dErrors.CodeNotFound, "unknown document id")
	}
	inOverflow := req.ViewID == s.catalog.OverflowViewID

	switch req.Field {
	case FieldProvided:
		rules.ApplyProvidedToggle(doc, sess.bag, req.Value)
		applied = true
	case FieldRequired:
		applied = rules.ApplyRequiredToggle(doc, sess.bag, inOverflow, req.Value)
	default:
		return false, dErrors.New(dErrors.CodeBadRequest, "field must be required or provided")
	}

	action := audit.EventDocumentToggled
	if !applied {
		action = audit.EventToggleRejected
		if s.metrics != nil {
			s.metrics.IncrementTogglesRejected()
		}
	}
	s.emit(ctx, audit.Event{
		Category:   audit.CategoryOperations,
		RecordID:   recordID,
		Action:     action,
		DocumentID: req.DocumentID,
		Field:      req.Field,
	})

	if applied {
		s.scheduleSyncLocked(sess)
	}
	return applied, nil
}

// Reset discards all unsaved changes, restoring the flags captured at the
// last successful fetch. Purely local; no network.
func (s *Service) Reset(ctx context.Context, recordID string) error {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// Restoring the stored flags and re-resolving against the unchanged
	// bag reproduces the post-fetch state exactly.
	for _, doc := range sess.docs {
		pair, ok := sess.baseline[doc.ID]
		if !ok {
			continue
		}
		doc.Provided = pair.provided
		doc.ManualRequired = pair.manualRequired
		rules.Resolve(doc, sess.bag)
	}
	sess.stopDebounceLocked()

	s.emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		RecordID: recordID,
		Action:   audit.EventChecklistReset,
	})
	return nil
}

// VisibleDocument pairs a display copy of a document with whether its
// required toggle is currently pinned by conditions in this view.
type VisibleDocument struct {
	*models.Document
	RequiredLocked bool
}

// VisibleDocuments returns the documents one view displays, after an
// optional case-insensitive name search. The overflow view applies the
// catch-all rules; any other declared view applies the active-view rules,
// which also serves the show-all-views fallback when routing found no
// active view.
func (s *Service) VisibleDocuments(recordID, viewID, query string) ([]VisibleDocument, error) {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return nil, err
	}
	if _, ok := s.catalog.ViewByID(viewID); !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown view id")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	inOverflow := viewID == s.catalog.OverflowViewID
	var visible []*models.Document
	if inOverflow {
		visible = s.filter.Overflow(sess.docs, sess.route.ViewID, sess.bag)
	} else {
		visible = s.filter.Active(sess.docs, viewID, sess.bag)
	}
	visible = s.filter.Search(visible, query)

	out := make([]VisibleDocument, len(visible))
	for i, doc := range visible {
		out[i] = VisibleDocument{
			Document:       doc.Clone(),
			RequiredLocked: !rules.CanToggleRequired(doc, sess.bag, inOverflow, !doc.Required),
		}
	}
	return out, nil
}

// ActiveView reports the routed view id; ok=false leaves the fallback
// policy (show all views) to the caller.
func (s *Service) ActiveView(recordID string) (viewID string, ok bool, err error) {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return "", false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.route.ViewID, sess.route.Ok, nil
}

// Progress returns the provided-over-required ratio.
func (s *Service) Progress(recordID string) (models.Progress, error) {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return models.Progress{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return completion.Ratio(sess.docs), nil
}

// DossierState returns the recomputed aggregate state plus whether it
// drifted from the value last read from the store.
func (s *Service) DossierState(recordID string) (state models.DossierState, drifted bool, err error) {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return "", false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	state = completion.State(sess.docs)
	drifted = sess.lastReadState != "" && sess.lastReadState != state
	return state, drifted, nil
}

// HasUnsavedChanges compares effective flags against the last-fetch
// baseline.
func (s *Service) HasUnsavedChanges(recordID string) (bool, error) {
	sess, err := s.requireSession(recordID)
	if err != nil {
		return false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.dirtyLocked(), nil
}

// ViewTitles exposes the catalog's views for presentation.
func (s *Service) ViewTitles() map[string]string {
	return s.catalog.ViewTitles()
}

// OverflowViewID exposes the catch-all view id.
func (s *Service) OverflowViewID() string {
	return s.catalog.OverflowViewID
}

func (sess *session) dirtyLocked() bool {
	for _, doc := range sess.docs {
		pair, ok := sess.baseline[doc.ID]
		if !ok {
			continue
		}
		if doc.Required != pair.required || doc.Provided != pair.provided {
			return true
		}
	}
	return false
}

func (sess *session) stopDebounceLocked() {
	if sess.debounceTimer != nil {
		sess.debounceTimer.Stop()
		sess.debounceTimer = nil
	}
}

// requireSession returns the session only when a fetch has populated it;
// mutation before the first successful fetch has nothing to mutate.
func (s *Service) requireSession(recordID string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[recordID]
	s.mu.Unlock()
	if !ok {
		return nil, dErrors.New(dErrors.CodeConflict, "record not loaded; call fetch first")
	}
	sess.mu.Lock()
	loaded := sess.docs != nil
	sess.mu.Unlock()
	if !loaded {
		return nil, dErrors.New(dErrors.CodeConflict, "record not loaded; call fetch first")
	}
	return sess, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	event.Actor = requestcontext.CallerID(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

// markSuppressed sets the sticky configuration-error flag, logging only on
// the transition so the condition is surfaced once, not on every skip.
func (s *Service) markSuppressed(ctx context.Context, origin string) {
	s.suppressMu.Lock()
	already := s.suppressed
	s.suppressed = true
	s.suppressMu.Unlock()
	if !already {
		s.logger.WarnContext(ctx, "record store credentials missing; suppressing sync until a call succeeds", "origin", origin)
	}
}

func (s *Service) clearSuppressed(ctx context.Context) {
	s.suppressMu.Lock()
	was := s.suppressed
	s.suppressed = false
	s.suppressMu.Unlock()
	if was {
		s.logger.InfoContext(ctx, "record store call succeeded; sync suppression cleared")
	}
}

func (s *Service) isSuppressed() bool {
	s.suppressMu.Lock()
	defer s.suppressMu.Unlock()
	return s.suppressed
}

func findDocument(docs []*models.Document, id string) *models.Document {
	for _, doc := range docs {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}
