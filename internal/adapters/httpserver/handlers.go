package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"placepulse/internal/app"
	"placepulse/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	I *app.IngestionService

	// MaxReviews caps one fetch-trigger run; ?max= may lower it but not raise it.
	MaxReviews int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type fetchResponse struct {
	PlaceID  string `json:"place_id"`
	Upserted int    `json:"reviews_upserted"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/places/{id}/fetch", h.fetchPlace)
	s.mux.Get("/v1/places/{id}/reviews", h.listReviews)
	s.mux.Get("/v1/places/{id}/stats", h.getStats)
	s.mux.Get("/v1/places/{id}", h.getBusiness)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
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

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) fetchPlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	if placeID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "place id is required")
		return
	}

	max := h.MaxReviews
	if ms := r.URL.Query().Get("max"); ms != "" {
		m, err := strconv.Atoi(ms)
		if err != nil || m <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid max", "max must be a positive integer")
			return
		}
		if m < max {
			max = m
		}
	}

	n, err := h.I.IngestPlace(r.Context(), placeID, max)
	if err != nil {
		if errors.Is(err, domain.ErrNoCredential) {
			writeProblem(w, http.StatusBadGateway, "Acquisition Failed", "no API credential configured")
			return
		}
		// internal detail stays in the log, the client gets the category
		log.Error().Err(err).Str("place_id", placeID).Msg("fetch trigger failed")
		writeProblem(w, http.StatusBadGateway, "Acquisition Failed", "could not fetch reviews for place")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(fetchResponse{PlaceID: placeID, Upserted: n}); err != nil {
		log.Error().Err(err).Msg("failed to write fetch response")
	}
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	b, err := h.Q.GetBusiness(r.Context(), placeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not load business")
		return
	}
	writeJSON(w, r, b)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	offset := 0
	if os := r.URL.Query().Get("offset"); os != "" {
		o, err := strconv.Atoi(os)
		if err != nil || o < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid offset", "offset must be a non-negative integer")
			return
		}
		offset = o
	}

	var f domain.ReviewFilter
	if rs := r.URL.Query().Get("rating"); rs != "" {
		rt, err := strconv.Atoi(rs)
		if err != nil || rt < 1 || rt > 5 {
			writeProblem(w, http.StatusBadRequest, "Invalid rating", "rating must be an integer between 1 and 5")
			return
		}
		f.Rating = &rt
	}
	if ss := r.URL.Query().Get("sentiment"); ss != "" {
		switch ss {
		case "positive", "neutral", "negative":
			f.Sentiment = &ss
		default:
			writeProblem(w, http.StatusBadRequest, "Invalid sentiment", "sentiment must be positive, neutral or negative")
			return
		}
	}

	out, err := h.Q.ListReviews(r.Context(), placeID, f, limit, offset)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not list reviews")
		return
	}
	if out == nil {
		out = []domain.Review{} // an unknown place reads as an empty list
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getStats(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	st, err := h.Q.GetStats(r.Context(), placeID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not compute statistics")
		return
	}
	writeJSON(w, r, st)
}
