package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"safehunt/zone"
)

type styleJSON struct {
	Color         string  `json:"color"`
	FillOpacity   float64 `json:"fill_opacity"`
	StrokeOpacity float64 `json:"stroke_opacity"`
}

// zoneJSON is the rendered view of a zone: raw fields plus the derived
// status, countdown and map style so clients never re-implement the
// classification rules.
type zoneJSON struct {
	ID            string          `json:"id"`
	Type          zone.HuntType   `json:"type"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	Description   string          `json:"description,omitempty"`
	Geometry      json.RawMessage `json:"geometry"`
	CreatedBy     string          `json:"created_by"`
	Status        zone.Status     `json:"status"`
	TimeRemaining string          `json:"time_remaining"`
	Style         styleJSON       `json:"style"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toZoneJSON(z zone.Zone, now time.Time) zoneJSON {
	status := zone.Classify(z, now)
	style := zone.StyleFor(z.Type, status)
	geometry, _ := zone.EncodeGeometry(z.Geometry)

	return zoneJSON{
		ID:            z.ID,
		Type:          z.Type,
		StartTime:     z.Start,
		EndTime:       z.End,
		Description:   z.Description,
		Geometry:      geometry,
		CreatedBy:     z.CreatedBy,
		Status:        status,
		TimeRemaining: zone.TimeRemaining(z, now),
		Style:         styleJSON{Color: style.Color, FillOpacity: style.FillOpacity, StrokeOpacity: style.StrokeOpacity},
		CreatedAt:     z.CreatedAt,
		UpdatedAt:     z.UpdatedAt,
	}
}

func toZoneListJSON(zones []zone.Zone, now time.Time) []zoneJSON {
	out := make([]zoneJSON, 0, len(zones))
	for _, z := range zones {
		out = append(out, toZoneJSON(z, now))
	}
	return out
}

// filterFromQuery builds the list filter from query parameters, falling
// back to the default (active only) when none are given.
func filterFromQuery(r *http.Request) zone.Filter {
	f := zone.DefaultFilter()
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		f.Status = zone.StatusFilter(v)
	}
	if v := q.Get("type"); v != "" {
		f.Type = zone.TypeFilter(v)
	}
	if v := q.Get("range"); v != "" {
		f.TimeRange = zone.TimeRangeFilter(v)
	}
	return f
}

type zoneRequest struct {
	Type        *zone.HuntType  `json:"type"`
	StartTime   *time.Time      `json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
	Description *string         `json:"description"`
	Geometry    json.RawMessage `json:"geometry"`
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.zones.ListCurrent(r.Context())
	if err != nil {
		zoneError(w, err)
		return
	}

	now := time.Now()
	zones = zone.Apply(zones, filterFromQuery(r), now)
	writeJSON(w, http.StatusOK, toZoneListJSON(zones, now))
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	z, err := s.zones.Get(r.Context(), chi.URLParam(r, "zoneID"))
	if err != nil {
		zoneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toZoneJSON(z, time.Now()))
}

func (s *Server) handleMyZones(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	zones, err := s.zones.ListByOwner(r.Context(), sess.User.ID)
	if err != nil {
		zoneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toZoneListJSON(zones, time.Now()))
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	params := zone.CreateParams{}
	if req.Type != nil {
		params.Type = *req.Type
	}
	if req.StartTime != nil {
		params.Start = *req.StartTime
	}
	if req.EndTime != nil {
		params.End = *req.EndTime
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if len(req.Geometry) > 0 {
		geometry, err := zone.DecodeGeometry(req.Geometry)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		params.Geometry = geometry
	}

	created, err := s.zones.Create(r.Context(), sessionFrom(r.Context()), params)
	if err != nil {
		zoneError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toZoneJSON(created, time.Now()))
}

func (s *Server) handleUpdateZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	params := zone.UpdateParams{
		Type:        req.Type,
		Start:       req.StartTime,
		End:         req.EndTime,
		Description: req.Description,
	}
	if len(req.Geometry) > 0 {
		geometry, err := zone.DecodeGeometry(req.Geometry)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		params.Geometry = geometry
	}

	updated, err := s.zones.Update(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "zoneID"), params)
	if err != nil {
		zoneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toZoneJSON(updated, time.Now()))
}

func (s *Server) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := s.zones.Delete(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "zoneID")); err != nil {
		zoneError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
