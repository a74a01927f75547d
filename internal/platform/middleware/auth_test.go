package middleware_test

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/jwttoken"
	"docket/internal/platform/middleware"
	"docket/pkg/requestcontext"
	"docket/pkg/testutil"
)

func authStack(t *testing.T, captured *string) (http.Handler, *jwttoken.JWTService) {
	t.Helper()

	jwtService := jwttoken.NewJWTService("test-key", "docket", "docket-api")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = requestcontext.CallerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), slog.Default())(next)
	return handler, jwtService
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token reaches the handler with caller identity", func(t *testing.T) {
		var caller string
		handler, jwtService := authStack(t, &caller)

		userID := uuid.New()
		token, err := jwtService.GenerateAccessToken(userID, uuid.New(), time.Hour)
		require.NoError(t, err)

		req := testutil.NewRequest(t, http.MethodGet, "/records/rec-1/checklist")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := testutil.DoRequest(handler, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID.String(), caller)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		var caller string
		handler, _ := authStack(t, &caller)

		rec := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, caller)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		var caller string
		handler, _ := authStack(t, &caller)

		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequestID(next)

	t.Run("generates an id when absent", func(t *testing.T) {
		rec := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("propagates a caller-supplied id", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		rec := testutil.DoRequest(handler, req)
		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
	})
}
