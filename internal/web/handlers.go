package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hpungsan/stash/internal/config"
	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/ops"
	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

// Handlers holds dependencies for the HTTP API handlers.
type Handlers struct {
	st  *store.Store
	cfg *config.Config
}

// HandleHealth reports liveness. It is the only unauthenticated route.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleList handles GET /sync - all projects, most recently updated first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := ops.List(r.Context(), h.st)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /sync/{project}. The file snapshot is omitted
// unless ?include_files=true; recent history is attached with
// ?include_history=N.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Get(r.Context(), h.st, ops.GetInput{
		Project:        r.PathValue("project"),
		IncludeFiles:   r.URL.Query().Get("include_files") == "true",
		IncludeHistory: parseIntParam(r, "include_history"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSync handles POST /sync/{project} - field-merge write of the body
// onto the project's record.
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	var payload project.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderError(w, errors.NewInvalidRequest("request body must be a JSON object"))
		return
	}

	out, err := ops.Sync(r.Context(), h.st, ops.SyncInput{
		Project: r.PathValue("project"),
		Payload: payload,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleDelete handles DELETE /sync/{project} - removes the record and its
// entire history. Unknown projects delete successfully.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Delete(r.Context(), h.st, ops.DeleteInput{
		Project: r.PathValue("project"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleHistory handles GET /sync/{project}/history?limit=N.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	out, err := ops.History(r.Context(), h.st, ops.HistoryInput{
		Project: r.PathValue("project"),
		Limit:   parseIntParam(r, "limit"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// parseIntParam reads an integer query parameter. Missing or unparseable
// values return 0, which downstream limit clamping turns into the default.
func parseIntParam(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
