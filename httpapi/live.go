package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"safehunt/zone"
)

// handleLiveZones streams zone snapshots over server-sent events. The public
// feed is the default; ?mine=1 narrows the stream to the caller's own zones
// and requires a signed-in session.
func (s *Server) handleLiveZones(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		writeError(w, http.StatusServiceUnavailable, "Flux temps réel indisponible")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Une erreur est survenue")
		return
	}

	scope := zone.Scope{}
	if r.URL.Query().Get("mine") == "1" {
		sess := sessionFrom(r.Context())
		if sess.User == nil {
			writeError(w, http.StatusUnauthorized, "Connexion requise")
			return
		}
		scope.OwnerID = sess.User.ID
	}

	sub := s.watcher.Subscribe(r.Context(), scope)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case zones := <-sub.Snapshots():
			payload, err := json.Marshal(toZoneListJSON(zones, time.Now()))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: zones\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-sub.Errs():
			// The subscription survives a failed refresh; tell the client
			// so it can fall back to polling if this persists.
			fmt.Fprint(w, "event: refresh_error\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
