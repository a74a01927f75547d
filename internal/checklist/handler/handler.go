// Package handler exposes the checklist engine over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docket/internal/checklist/service"
	"docket/pkg/platform/httputil"
	"docket/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// RegisterRoutes mounts the checklist endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/records/{recordID}/checklist", func(r chi.Router) {
		r.Get("/", h.getChecklist)
		r.Post("/toggle", h.toggle)
		r.Post("/save", h.save)
		r.Post("/reset", h.reset)
	})
}

// getChecklist refreshes the record from the store and returns the full
// snapshot. A view query parameter narrows the response to one view; a q
// parameter applies a name search within the returned views.
func (h *Handler) getChecklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID := chi.URLParam(r, "recordID")
	requestID := requestcontext.RequestID(ctx)

	if err := h.service.FetchAll(ctx, recordID); err != nil {
		h.logger.ErrorContext(ctx, "checklist fetch failed",
			"record_id", recordID,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp, err := h.snapshot(recordID, r.URL.Query().Get("view"), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID := chi.URLParam(r, "recordID")
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[toggleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	applied, err := h.service.Toggle(ctx, recordID, service.ToggleRequest{
		DocumentID: req.DocumentID,
		Field:      req.Field,
		Value:      req.Value,
		ViewID:     req.ViewID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	progress, err := h.service.Progress(recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, _, err := h.service.DossierState(recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dirty, err := h.service.HasUnsavedChanges(recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toggleResponse{
		Applied:           applied,
		Progress:          toProgressResponse(progress),
		DossierState:      state,
		HasUnsavedChanges: dirty,
	})
}

// save runs a full write-back. Partial success, where drifted fields were
// eliminated, is reported with 207 so clients can distinguish it from a
// clean save without parsing the body.
func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID := chi.URLParam(r, "recordID")
	requestID := requestcontext.RequestID(ctx)

	result, err := h.service.Save(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "checklist save failed",
			"record_id", recordID,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	progress, err := h.service.Progress(recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, _, err := h.service.DossierState(recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if result.Status == service.SavePartial {
		status = http.StatusMultiStatus
	}
	httputil.WriteJSON(w, status, saveResponse{
		Status:       result.Status,
		Written:      result.Written,
		Failed:       result.Failed,
		Progress:     toProgressResponse(progress),
		DossierState: state,
	})
}

// reset discards unsaved changes and returns the restored snapshot.
func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID := chi.URLParam(r, "recordID")

	if err := h.service.Reset(ctx, recordID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp, err := h.snapshot(recordID, "", "")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// snapshot assembles the checklist response. With an explicit view only
// that view is populated; otherwise the routed view plus overflow, or
// every view when routing found no match.
func (h *Handler) snapshot(recordID, viewID, query string) (checklistResponse, error) {
	activeView, routed, err := h.service.ActiveView(recordID)
	if err != nil {
		return checklistResponse{}, err
	}

	var viewIDs []string
	switch {
	case viewID != "":
		viewIDs = []string{viewID}
	case routed:
		viewIDs = []string{activeView, h.service.OverflowViewID()}
	default:
		for id := range h.service.ViewTitles() {
			viewIDs = append(viewIDs, id)
		}
	}

	documents := make(map[string][]documentResponse, len(viewIDs))
	for _, id := range viewIDs {
		visible, err := h.service.VisibleDocuments(recordID, id, query)
		if err != nil {
			return checklistResponse{}, err
		}
		docs := make([]documentResponse, 0, len(visible))
		for _, v := range visible {
			docs = append(docs, documentResponse{
				ID:                v.ID,
				Name:              v.Name,
				Required:          v.Required,
				Provided:          v.Provided,
				ConditionRequired: v.ConditionRequired,
				RequiredLocked:    v.RequiredLocked,
			})
		}
		documents[id] = docs
	}

	progress, err := h.service.Progress(recordID)
	if err != nil {
		return checklistResponse{}, err
	}
	state, drifted, err := h.service.DossierState(recordID)
	if err != nil {
		return checklistResponse{}, err
	}
	dirty, err := h.service.HasUnsavedChanges(recordID)
	if err != nil {
		return checklistResponse{}, err
	}

	return checklistResponse{
		RecordID:          recordID,
		Views:             h.service.ViewTitles(),
		ActiveViewID:      activeView,
		OverflowViewID:    h.service.OverflowViewID(),
		Documents:         documents,
		Progress:          toProgressResponse(progress),
		DossierState:      state,
		StateDrift:        drifted,
		HasUnsavedChanges: dirty,
	}, nil
}
