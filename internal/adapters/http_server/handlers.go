// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"homefinder/internal/adapters/observability"
	"homefinder/internal/app"
	"homefinder/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	S *app.SelectionService
	v *validator.Validate
}

func NewHandlers(s *app.SelectionService) *Handlers {
	return &Handlers{S: s, v: validator.New()}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/selections/best", h.findBest)
	s.mux.Get("/v1/properties/{id}", h.getProperty)
	s.mux.Post("/v1/properties/{id}/distances", h.distances)
}

// ---- DTOs ----

type filtersDTO struct {
	MinPrice *float64 `json:"minPrice"`
	MaxPrice *float64 `json:"maxPrice"`
	Rooms    *int     `json:"rooms"`
}

// POIs are decoded loosely: entries with non-numeric coordinates are dropped later, not rejected.
// At most 100 POIs (and weights) per request: all of them go into one routing table call,
// and the public OSRM server refuses larger tables.
type selectionRequest struct {
	POIs    []map[string]any `json:"pois" validate:"max=100"`
	Filters filtersDTO       `json:"filters"`
	Limit   int              `json:"limit" validate:"min=0"`
	Weights []any            `json:"weights" validate:"max=100"`
}

type distancesRequest struct {
	POIs []map[string]any `json:"pois" validate:"required,min=1,max=100"`
}

type legDTO struct {
	POIIndex         int      `json:"poiIndex"`
	Distance         *float64 `json:"distance"`
	Duration         *float64 `json:"duration"`
	Weight           float64  `json:"weight"`
	WeightedDistance *float64 `json:"weightedDistance"`
}

type rankedDTO struct {
	Property domain.PropertyCandidate `json:"property"`
	Score    *float64                 `json:"score"`
	Legs     []legDTO                 `json:"legs"`
}

type selectionResponse struct {
	Property   *domain.PropertyCandidate `json:"property"`
	Score      *float64                  `json:"score"`
	Distances  []*float64                `json:"distances"`
	Durations  []*float64                `json:"durations"`
	Legs       []legDTO                  `json:"legs"`
	Candidates []rankedDTO               `json:"candidates"`
	Degraded   bool                      `json:"degraded"`
}

type propertyDTO struct {
	ID         int64    `json:"id"`
	HouseName  string   `json:"houseName"`
	Address    string   `json:"address"`
	Price      float64  `json:"price"`
	Rooms      int      `json:"rooms"`
	Washrooms  int      `json:"washrooms"`
	SquareFeet int      `json:"squareFeet"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// nullable renders non-finite values as JSON null.
func nullable(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func nullables(in []float64) []*float64 {
	out := make([]*float64, len(in))
	for i, f := range in {
		out[i] = nullable(f)
	}
	return out
}

func toLegs(in []domain.RouteLeg) []legDTO {
	out := make([]legDTO, 0, len(in))
	for _, l := range in {
		out = append(out, legDTO{
			POIIndex:         l.POIIndex,
			Distance:         nullable(l.DistanceMeters),
			Duration:         nullable(l.DurationSeconds),
			Weight:           l.Weight,
			WeightedDistance: nullable(l.WeightedDistance),
		})
	}
	return out
}

// toWeights keeps positions; anything that is not a JSON number becomes NaN so the POI's own weight applies.
func toWeights(in []any) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for i, v := range in {
		if f, ok := v.(float64); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func toSelectionResponse(sel domain.Selection) selectionResponse {
	resp := selectionResponse{
		Property:   sel.Best,
		Score:      nullable(sel.BestScore),
		Distances:  nullables(sel.Distances()),
		Durations:  nullables(sel.Durations()),
		Legs:       toLegs(sel.Legs),
		Candidates: make([]rankedDTO, 0, len(sel.Ranked)),
		Degraded:   sel.Degraded,
	}
	for _, sc := range sel.Ranked {
		resp.Candidates = append(resp.Candidates, rankedDTO{Property: sc.Property, Score: nullable(sc.Score), Legs: toLegs(sc.Legs)})
	}
	return resp
}

// ---- helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON object")
		return false
	}
	if err := h.v.Struct(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

// ---- handlers ----

func (h *Handlers) findBest(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	sel, err := h.S.FindBest(r.Context(), app.SelectionRequest{
		POIs: app.MapPOIs(req.POIs),
		Filters: app.Filters{
			MinPrice: req.Filters.MinPrice,
			MaxPrice: req.Filters.MaxPrice,
			Rooms:    req.Filters.Rooms,
		},
		Limit:   req.Limit,
		Weights: toWeights(req.Weights),
	})
	if err != nil {
		log.Error().Err(err).Str("error_type", observability.LabelErr(err)).Msg("find best failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "candidate lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, toSelectionResponse(sel))
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.S.Property(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("get property failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "property lookup failed")
		return
	}

	etag, body := calcETagAndBody(propertyDTO{
		ID:         p.ID,
		HouseName:  p.HouseName,
		Address:    p.Address,
		Price:      p.Price,
		Rooms:      p.Rooms,
		Washrooms:  p.Washrooms,
		SquareFeet: p.SquareFeet,
		Latitude:   p.Lat,
		Longitude:  p.Lon,
	})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getProperty body")
	}
}

func (h *Handlers) distances(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req distancesRequest
	if !h.decode(w, r, &req) {
		return
	}

	legs, err := h.S.Distances(r.Context(), id, app.MapPOIs(req.POIs))
	var re *domain.RoutingError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"propertyId": id, "legs": toLegs(legs)})
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
	case errors.Is(err, app.ErrNoCoordinates):
		writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.As(err, &re):
		writeProblem(w, http.StatusBadGateway, "Routing Service Error", re.Error())
	default:
		log.Error().Err(err).Int64("id", id).Msg("distances failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "distance lookup failed")
	}
}
