package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mind-engage/memorizer/internal/exam"
)

const maxEventPage = 1000

type eventView struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// GET /admin/events?after=SEQ&limit=N
// Pages through the import and attempt log; pass the last seq as after.
func ListEventsHandler(store exam.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after int64
		if v := r.URL.Query().Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad after", http.StatusBadRequest)
				return
			}
			after = n
		}
		limit := min(parseIntDefault(r.URL.Query().Get("limit"), 100), maxEventPage)

		events, err := store.ListEvents(r.Context(), after, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]eventView, 0, len(events))
		for _, e := range events {
			out = append(out, eventView{
				Seq: e.Seq, SiteID: e.SiteID, Type: e.Type, Key: e.Key,
				Data: json.RawMessage(e.DataJSON), CreatedAt: e.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
