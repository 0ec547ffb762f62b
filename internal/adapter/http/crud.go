package http

import (
	"context"
	"net/http"
)

// ---------------------------------------------------------------------------
// Generic owner-scoped handler factories
// ---------------------------------------------------------------------------

// handleOwnedGet creates a handler that loads one resource of the calling
// owner by URL param "id" and wraps it in {key: item}.
func handleOwnedGet[T any](key string, getFn func(ctx context.Context, id, ownerID string) (*T, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := getFn(r.Context(), urlParam(r, "id"), owner(r))
		if err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{key: item})
	}
}

// handleOwnedDelete creates a handler that deletes a resource of the
// calling owner by URL param "id".
func handleOwnedDelete(deleteFn func(ctx context.Context, id, ownerID string) error, notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deleteFn(r.Context(), urlParam(r, "id"), owner(r)); err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// handleList creates a handler that returns a non-nil JSON list.
func handleList[T any](key string, listFn func() []T) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := listFn()
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, map[string]any{key: items})
	}
}
